package service

import (
	"slices"
	"strings"

	"github.com/ticktraq/field-service/internal/domain"
	apperrors "github.com/ticktraq/field-service/pkg/util"
)

// RequestDraft builds a new inventory request line by line before it
// is submitted with AddRequest. It is not safe for concurrent use.
type RequestDraft struct {
	RequestedTo string
	RequestedBy string
	Remarks     string
	items       []domain.RequestedItem
}

// NewRequestDraft starts an empty draft.
func NewRequestDraft(requestedTo, requestedBy string) *RequestDraft {
	return &RequestDraft{RequestedTo: requestedTo, RequestedBy: requestedBy}
}

// AddItem adds one unit of a catalog entry. A code already on the
// draft is rejected.
func (d *RequestDraft) AddItem(item domain.InventoryCatalogItem) error {
	if d.index(item.Code) >= 0 {
		return apperrors.NewValidationError("item already added", map[string]any{"itemCode": item.Code})
	}
	d.items = append(d.items, domain.RequestedItem{
		ItemCode: item.Code,
		ItemName: item.Name,
		Quantity: 1,
		Status:   domain.RequestStatusPending,
	})
	return nil
}

// RemoveItem drops the line with code and reports whether it existed.
func (d *RequestDraft) RemoveItem(code string) bool {
	idx := d.index(code)
	if idx < 0 {
		return false
	}
	d.items = slices.Delete(d.items, idx, idx+1)
	return true
}

// SetQuantity changes the requested amount of a line.
func (d *RequestDraft) SetQuantity(code string, qty int) error {
	if qty < 1 {
		return apperrors.NewValidationError("quantity must be at least 1", map[string]any{"itemCode": code})
	}
	idx := d.index(code)
	if idx < 0 {
		return apperrors.NewNotFound("draft item", map[string]any{"itemCode": code})
	}
	d.items[idx].Quantity = qty
	return nil
}

// SetRemarks sets the per-line remarks.
func (d *RequestDraft) SetRemarks(code, remarks string) error {
	idx := d.index(code)
	if idx < 0 {
		return apperrors.NewNotFound("draft item", map[string]any{"itemCode": code})
	}
	d.items[idx].Remarks = remarks
	return nil
}

// Items returns a copy of the draft lines.
func (d *RequestDraft) Items() []domain.RequestedItem {
	return slices.Clone(d.items)
}

// Build returns the AddRequest input for the draft.
func (d *RequestDraft) Build() (AddRequestInput, error) {
	input := AddRequestInput{
		RequestedTo: strings.TrimSpace(d.RequestedTo),
		RequestedBy: strings.TrimSpace(d.RequestedBy),
		Items:       d.Items(),
		Remarks:     d.Remarks,
	}
	if _, err := validateRequestInput(input); err != nil {
		return AddRequestInput{}, err
	}
	return input, nil
}

func (d *RequestDraft) index(code string) int {
	return slices.IndexFunc(d.items, func(item domain.RequestedItem) bool { return item.ItemCode == code })
}
