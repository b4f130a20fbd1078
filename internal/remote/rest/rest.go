// Package rest talks to the hosted row store over its PostgREST-style
// JSON API. Rows live in the "transactions" and "events" collections;
// filtering uses the id=eq.<value> query convention.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"kasku/internal/core"
	"kasku/internal/remote"
)

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// transactionRow mirrors the hosted transactions table. Column names are
// fixed by the existing deployment, including the camelCase eventId.
type transactionRow struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	Type        string `json:"type"`
	Amount      int64  `json:"amount"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Treasurer   string `json:"treasurer"`
	EventID     string `json:"eventId,omitempty"`
}

type eventRow struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Date        string `json:"date"`
	Budget      int64  `json:"budget"`
	Status      string `json:"status"`
}

func (c *Client) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	body, err := c.do(ctx, http.MethodGet, "transactions?order=date.desc", nil)
	if err != nil {
		return nil, err
	}

	var rows []transactionRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode transactions: %w", err)
	}

	out := make([]core.Transaction, 0, len(rows))
	for _, r := range rows {
		t, err := r.toDomain()
		if err != nil {
			return nil, fmt.Errorf("transaction %s: %w", r.ID, err)
		}
		out = append(out, t)
	}
	return out, nil
}

func (c *Client) InsertTransaction(ctx context.Context, t core.Transaction) error {
	_, err := c.do(ctx, http.MethodPost, "transactions", transactionFromDomain(t))
	return err
}

func (c *Client) UpdateTransaction(ctx context.Context, id string, p core.TransactionPatch) error {
	_, err := c.do(ctx, http.MethodPatch, "transactions?id=eq."+url.QueryEscape(id), transactionPatchBody(p))
	return err
}

func (c *Client) DeleteTransaction(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "transactions?id=eq."+url.QueryEscape(id), nil)
	return err
}

func (c *Client) ListEvents(ctx context.Context) ([]core.Event, error) {
	body, err := c.do(ctx, http.MethodGet, "events?order=date.desc", nil)
	if err != nil {
		return nil, err
	}

	var rows []eventRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}

	out := make([]core.Event, 0, len(rows))
	for _, r := range rows {
		e, err := r.toDomain()
		if err != nil {
			return nil, fmt.Errorf("event %s: %w", r.ID, err)
		}
		out = append(out, e)
	}
	return out, nil
}

func (c *Client) InsertEvent(ctx context.Context, e core.Event) error {
	_, err := c.do(ctx, http.MethodPost, "events", eventFromDomain(e))
	return err
}

func (c *Client) UpdateEvent(ctx context.Context, id string, p core.EventPatch) error {
	_, err := c.do(ctx, http.MethodPatch, "events?id=eq."+url.QueryEscape(id), eventPatchBody(p))
	return err
}

func (c *Client) DeleteEvent(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "events?id=eq."+url.QueryEscape(id), nil)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode payload: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/rest/v1/"+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, remote.ErrNotFound
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, body)
	}
	return body, nil
}

func (r transactionRow) toDomain() (core.Transaction, error) {
	d, err := core.ParseDate(r.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		ID:          r.ID,
		Date:        d,
		Type:        core.TransactionType(r.Type),
		Amount:      core.Money{Rupiah: r.Amount},
		Category:    r.Category,
		Description: r.Description,
		Treasurer:   r.Treasurer,
		EventID:     r.EventID,
	}, nil
}

func transactionFromDomain(t core.Transaction) transactionRow {
	return transactionRow{
		ID:          t.ID,
		Date:        t.Date.String(),
		Type:        string(t.Type),
		Amount:      t.Amount.Rupiah,
		Category:    t.Category,
		Description: t.Description,
		Treasurer:   t.Treasurer,
		EventID:     t.EventID,
	}
}

func transactionPatchBody(p core.TransactionPatch) map[string]any {
	body := map[string]any{}
	if p.Date != nil {
		body["date"] = p.Date.String()
	}
	if p.Type != nil {
		body["type"] = string(*p.Type)
	}
	if p.Amount != nil {
		body["amount"] = p.Amount.Rupiah
	}
	if p.Category != nil {
		body["category"] = *p.Category
	}
	if p.Description != nil {
		body["description"] = *p.Description
	}
	if p.Treasurer != nil {
		body["treasurer"] = *p.Treasurer
	}
	if p.EventID != nil {
		body["eventId"] = *p.EventID
	}
	return body
}

func (r eventRow) toDomain() (core.Event, error) {
	d, err := core.ParseDate(r.Date)
	if err != nil {
		return core.Event{}, err
	}
	return core.Event{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Date:        d,
		Budget:      core.Money{Rupiah: r.Budget},
		Status:      core.EventStatus(r.Status),
	}, nil
}

func eventFromDomain(e core.Event) eventRow {
	return eventRow{
		ID:          e.ID,
		Name:        e.Name,
		Description: e.Description,
		Date:        e.Date.String(),
		Budget:      e.Budget.Rupiah,
		Status:      string(e.Status),
	}
}

func eventPatchBody(p core.EventPatch) map[string]any {
	body := map[string]any{}
	if p.Name != nil {
		body["name"] = *p.Name
	}
	if p.Description != nil {
		body["description"] = *p.Description
	}
	if p.Date != nil {
		body["date"] = p.Date.String()
	}
	if p.Budget != nil {
		body["budget"] = p.Budget.Rupiah
	}
	if p.Status != nil {
		body["status"] = string(*p.Status)
	}
	return body
}
