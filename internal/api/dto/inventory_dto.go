package dto

import (
	"github.com/ticktraq/field-service/internal/domain"
	"github.com/ticktraq/field-service/internal/service"
)

// AddRequestRequest payload for a new store request.
type AddRequestRequest struct {
	RequestedTo string                 `json:"requestedTo"`
	RequestedBy string                 `json:"requestedBy"`
	Items       []domain.RequestedItem `json:"items"`
	ApprovedAt  string                 `json:"approvedAt,omitempty"`
	Remarks     string                 `json:"remarks,omitempty"`
}

// Input converts the payload for the store.
func (r AddRequestRequest) Input() service.AddRequestInput {
	return service.AddRequestInput{
		RequestedTo: r.RequestedTo,
		RequestedBy: r.RequestedBy,
		Items:       r.Items,
		ApprovedAt:  r.ApprovedAt,
		Remarks:     r.Remarks,
	}
}

// ApplyItemRequest consumes an accepted unit on a ticket or at a location.
type ApplyItemRequest struct {
	TicketID string `json:"ticketId"`
	Location string `json:"location"`
	Quantity int    `json:"quantity"`
	Remarks  string `json:"remarks"`
}

// Input converts the payload for the store.
func (r ApplyItemRequest) Input() service.ApplyInput {
	return service.ApplyInput{
		TicketID: r.TicketID,
		Location: r.Location,
		Quantity: r.Quantity,
		Remarks:  r.Remarks,
	}
}

// ReturnItemRequest sends an accepted unit back.
type ReturnItemRequest struct {
	Role     string `json:"role"`
	User     string `json:"user"`
	Project  string `json:"project"`
	Location string `json:"location"`
	TicketID string `json:"ticketId"`
	Remarks  string `json:"remarks"`
}

// Input converts the payload for the store.
func (r ReturnItemRequest) Input() service.ReturnInput {
	return service.ReturnInput{
		Role:     r.Role,
		User:     r.User,
		Project:  r.Project,
		Location: r.Location,
		TicketID: r.TicketID,
		Remarks:  r.Remarks,
	}
}
