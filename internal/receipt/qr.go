package receipt

import (
	"encoding/base64"

	qrcode "github.com/skip2/go-qrcode"
)

// QRPNG encodes the record's verification payload as a PNG QR code.
// Encoding failure degrades the receipt rather than blocking it: the
// caller gets nil bytes and renders the record without a code.
func QRPNG(r Record, size int) []byte {
	if r.VerifyPayload == "" {
		return nil
	}
	png, err := qrcode.Encode(r.VerifyPayload, qrcode.Medium, size)
	if err != nil {
		return nil
	}
	return png
}

// QRDataURL wraps QRPNG in a data: URL for inline embedding in HTML or
// JSON responses. Empty when encoding fails.
func QRDataURL(r Record, size int) string {
	png := QRPNG(r, size)
	if png == nil {
		return ""
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
}
