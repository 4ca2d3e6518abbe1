// Package deliverynote builds rendering instructions for the visual
// delivery note produced when a kitchen confirms receipt of goods.
package deliverynote

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Placeholder fills any layout slot whose source field is absent. The
// renderer always receives a complete instruction set; slots are never
// dropped.
const Placeholder = "-"

// NoteItem is one line on the delivery note.
type NoteItem struct {
	Name      string          `json:"name"`
	Unit      string          `json:"unit"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// NoteInput carries everything known at confirmation time. Optional
// fields are pointers; BuildRequest substitutes placeholders for them.
type NoteInput struct {
	OrderID     uuid.UUID
	YayasanName string
	DapurName   string
	Items       []NoteItem

	VendorName   string
	VehiclePlate string
	SenderName   string
	ShippedAt    *time.Time

	ReceiverName      string
	ArrivedAt         time.Time
	Notes             string
	ReceiverSignature string
	SenderSignature   *string
	ProofPhoto        *string
}

// RenderRequest is the wire shape posted to the rendering service.
// Every field is always populated.
type RenderRequest struct {
	OrderID           string     `json:"order_id"`
	YayasanName       string     `json:"yayasan_name"`
	DapurName         string     `json:"dapur_name"`
	VendorName        string     `json:"vendor_name"`
	VehiclePlate      string     `json:"vehicle_plate"`
	SenderName        string     `json:"sender_name"`
	ShippedAt         string     `json:"shipped_at"`
	ReceiverName      string     `json:"receiver_name"`
	ArrivedAt         string     `json:"arrived_at"`
	Notes             string     `json:"notes"`
	ReceiverSignature string     `json:"receiver_signature"`
	SenderSignature   string     `json:"sender_signature"`
	ProofPhoto        string     `json:"proof_photo"`
	Items             []NoteItem `json:"items"`
}

// BuildRequest is a pure mapping from confirmation-time facts to a
// complete rendering instruction set.
func BuildRequest(input NoteInput) RenderRequest {
	req := RenderRequest{
		OrderID:           input.OrderID.String(),
		YayasanName:       orPlaceholder(input.YayasanName),
		DapurName:         orPlaceholder(input.DapurName),
		VendorName:        orPlaceholder(input.VendorName),
		VehiclePlate:      orPlaceholder(input.VehiclePlate),
		SenderName:        orPlaceholder(input.SenderName),
		ShippedAt:         Placeholder,
		ReceiverName:      orPlaceholder(input.ReceiverName),
		ArrivedAt:         input.ArrivedAt.UTC().Format(time.RFC3339),
		Notes:             orPlaceholder(input.Notes),
		ReceiverSignature: orPlaceholder(input.ReceiverSignature),
		SenderSignature:   Placeholder,
		ProofPhoto:        Placeholder,
		Items:             input.Items,
	}
	if input.ShippedAt != nil {
		req.ShippedAt = input.ShippedAt.UTC().Format(time.RFC3339)
	}
	if input.SenderSignature != nil && strings.TrimSpace(*input.SenderSignature) != "" {
		req.SenderSignature = *input.SenderSignature
	}
	if input.ProofPhoto != nil && strings.TrimSpace(*input.ProofPhoto) != "" {
		req.ProofPhoto = *input.ProofPhoto
	}
	if req.Items == nil {
		req.Items = []NoteItem{}
	}
	return req
}

func orPlaceholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return Placeholder
	}
	return s
}
