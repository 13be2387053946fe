// Package upi builds UPI payment deep links and renders them as QR codes.
package upi

import (
	"fmt"
	"net/url"

	"github.com/shopspring/decimal"
	qrcode "github.com/skip2/go-qrcode"
)

// DefaultQRSize is the rendered QR image edge length in pixels.
const DefaultQRSize = 300

// PaymentRequest describes one UPI collect request.
type PaymentRequest struct {
	PayeeID   string // the virtual payment address, e.g. seller@bank
	PayeeName string
	Amount    decimal.Decimal
	Note      string
}

// URI renders the upi://pay deep link for the request.
func (p PaymentRequest) URI() string {
	params := url.Values{}
	params.Set("pa", p.PayeeID)
	params.Set("pn", p.PayeeName)
	params.Set("am", p.Amount.StringFixed(2))
	params.Set("tn", p.Note)
	params.Set("cu", "INR")
	return "upi://pay?" + params.Encode()
}

// QRCode renders the payment link as a PNG image of size x size pixels.
// Error correction is kept low so dense notes still scan at small sizes.
func (p PaymentRequest) QRCode(size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultQRSize
	}
	png, err := qrcode.Encode(p.URI(), qrcode.Low, size)
	if err != nil {
		return nil, fmt.Errorf("encode payment qr: %w", err)
	}
	return png, nil
}
