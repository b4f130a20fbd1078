package core

// TransactionPatch is a partial update of a transaction. Nil fields are
// left untouched; the ID is never part of a patch.
type TransactionPatch struct {
	Date        *Date
	Type        *TransactionType
	Amount      *Money
	Category    *string
	Description *string
	Treasurer   *string
	EventID     *string
}

// Apply merges the patch into t.
func (p TransactionPatch) Apply(t *Transaction) {
	if p.Date != nil {
		t.Date = *p.Date
	}
	if p.Type != nil {
		t.Type = *p.Type
	}
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Treasurer != nil {
		t.Treasurer = *p.Treasurer
	}
	if p.EventID != nil {
		t.EventID = *p.EventID
	}
}

// EventPatch is a partial update of an event.
type EventPatch struct {
	Name        *string
	Description *string
	Date        *Date
	Budget      *Money
	Status      *EventStatus
}

func (p EventPatch) Apply(e *Event) {
	if p.Name != nil {
		e.Name = *p.Name
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Date != nil {
		e.Date = *p.Date
	}
	if p.Budget != nil {
		e.Budget = *p.Budget
	}
	if p.Status != nil {
		e.Status = *p.Status
	}
}
