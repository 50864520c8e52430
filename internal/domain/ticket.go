package domain

import (
	"reflect"
	"strings"
	"sync"
	"time"
)

// TicketStatus enumerates lifecycle states for tickets. No transition
// graph is enforced; any status may follow any other.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "inProgress"
	TicketStatusClosed     TicketStatus = "closed"
	TicketStatusSuspended  TicketStatus = "suspended"
	TicketStatusPending    TicketStatus = "pending"
)

// Valid reports whether s is a member of the status enum.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusClosed, TicketStatusSuspended, TicketStatusPending:
		return true
	}
	return false
}

// TicketPriority enumerates display urgency.
type TicketPriority string

const (
	TicketPriorityCritical TicketPriority = "critical"
	TicketPriorityHigh     TicketPriority = "high"
	TicketPriorityMedium   TicketPriority = "medium"
	TicketPriorityLow      TicketPriority = "low"
)

// Rank orders priorities for display, critical first. Unknown values
// sort after low.
func (p TicketPriority) Rank() int {
	switch p {
	case TicketPriorityCritical:
		return 0
	case TicketPriorityHigh:
		return 1
	case TicketPriorityMedium:
		return 2
	case TicketPriorityLow:
		return 3
	}
	return 4
}

// Valid reports whether p is a member of the priority enum.
func (p TicketPriority) Valid() bool {
	return p.Rank() < 4
}

// ApprovalStatus is informational and never gates a transition. The
// empty value means no approval has been requested.
type ApprovalStatus string

const (
	ApprovalNone     ApprovalStatus = ""
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// Valid reports whether a is a member of the approval enum, including none.
func (a ApprovalStatus) Valid() bool {
	switch a {
	case ApprovalNone, ApprovalPending, ApprovalApproved, ApprovalRejected:
		return true
	}
	return false
}

// SLAStatus is supplied with ticket data and never computed here.
type SLAStatus string

const (
	SLAMet      SLAStatus = "met"
	SLABreached SLAStatus = "breached"
	SLAWarning  SLAStatus = "warning"
)

// Valid reports whether s is a member of the SLA enum.
func (s SLAStatus) Valid() bool {
	switch s {
	case SLAMet, SLABreached, SLAWarning:
		return true
	}
	return false
}

// Person is a lightweight reference to a user.
type Person struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Role   string `json:"role,omitempty"`
	Avatar string `json:"avatar,omitempty"`
}

// Attachment is file metadata uploaded against a ticket.
type Attachment struct {
	ID           int64     `json:"id"`
	Type         string    `json:"type"`
	FileName     string    `json:"fileName"`
	UploadedDate time.Time `json:"uploadedDate"`
	FileSize     string    `json:"fileSize,omitempty"`
}

// Dependency is a blocker recorded on a ticket.
type Dependency struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Remarks  string `json:"remarks"`
	Resolved bool   `json:"resolved"`
}

// InventoryItem is a part consumed while working a ticket.
type InventoryItem struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Barcode      string    `json:"barcode,omitempty"`
	Desc         string    `json:"desc,omitempty"`
	Quantity     int       `json:"quantity"`
	Remarks      string    `json:"remarks,omitempty"`
	ConsumedDate time.Time `json:"consumedDate"`
}

// ActivityLog is a worked-time row embedded in a ticket.
type ActivityLog struct {
	ID          int64     `json:"id"`
	WorkDate    time.Time `json:"workDate"`
	StartTime   string    `json:"startTime"`
	EndTime     string    `json:"endTime"`
	Duration    string    `json:"duration"`
	Activity    string    `json:"activity"`
	Status      string    `json:"status"`
	RemoteVisit bool      `json:"remoteVisit"`
	Distance    string    `json:"distance,omitempty"`
	HotelStay   bool      `json:"hotelStay,omitempty"`
	Overtime    bool      `json:"overtime,omitempty"`
	Remarks     string    `json:"remarks,omitempty"`
}

// Comment is a free-text note on a ticket.
type Comment struct {
	ID        int64     `json:"id"`
	User      string    `json:"user"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	Avatar    string    `json:"avatar,omitempty"`
}

// ChatRole identifies who wrote a chat message.
type ChatRole string

const (
	ChatRoleEngineer ChatRole = "engineer"
	ChatRoleManager  ChatRole = "manager"
	ChatRoleAdmin    ChatRole = "admin"
)

// ChatMessage is one line of the ticket chat transcript.
type ChatMessage struct {
	ID        int64     `json:"id"`
	Sender    string    `json:"sender"`
	Role      ChatRole  `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Ticket is a unit of field work. Detail payloads travel with the
// ticket and are only inspected through presence checks. Scalar fields
// always serialize, so a key missing from a stored record means the
// value was never set.
type Ticket struct {
	ID          int64  `json:"id"`
	TicketID    string `json:"ticketId"`
	Title       string `json:"title"`
	Type        string `json:"type"`
	Description string `json:"description"`

	Status         TicketStatus   `json:"status"`
	ApprovalStatus ApprovalStatus `json:"approvalStatus"`
	Priority       TicketPriority `json:"priority"`

	SiteName        string `json:"siteName"`
	Region          string `json:"region"`
	City            string `json:"city"`
	LocationDetails string `json:"locationDetails"`

	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
	StartDate     *time.Time `json:"startDate,omitempty"`
	SuspendedDate *time.Time `json:"suspendedDate,omitempty"`
	CompletedDate *time.Time `json:"completedDate,omitempty"`
	DueDate       *time.Time `json:"dueDate,omitempty"`
	DelayDays     int        `json:"delayDays"`

	Assignee *Person `json:"assignee,omitempty"`
	Reporter Person  `json:"reporter"`

	ProjectName      string    `json:"projectName"`
	SLAStatus        SLAStatus `json:"slaStatus"`
	CommentsCount    int       `json:"commentsCount"`
	AttachmentsCount int       `json:"attachmentsCount"`

	InventoryConsumed []InventoryItem `json:"inventoryConsumed,omitempty"`
	DailyLogs         []ActivityLog   `json:"dailyLogs,omitempty"`
	Activities        []Activity      `json:"activities,omitempty"`
	Dependencies      []Dependency    `json:"dependencies,omitempty"`
	Attachments       []Attachment    `json:"attachments,omitempty"`
	Comments          []Comment       `json:"comments,omitempty"`
	Chat              []ChatMessage   `json:"chat,omitempty"`
}

// HasAttachments reports whether any attachment travels with the ticket.
func (t Ticket) HasAttachments() bool {
	return len(t.Attachments) > 0
}

// HasDependencies reports whether the ticket carries blockers.
func (t Ticket) HasDependencies() bool {
	return len(t.Dependencies) > 0
}

// OpenDependencies counts unresolved blockers.
func (t Ticket) OpenDependencies() int {
	n := 0
	for _, dep := range t.Dependencies {
		if !dep.Resolved {
			n++
		}
	}
	return n
}

// TicketPatch carries the fields a bulk update may replace. Nil fields
// are left untouched.
type TicketPatch struct {
	Status         *TicketStatus   `json:"status,omitempty"`
	Priority       *TicketPriority `json:"priority,omitempty"`
	ApprovalStatus *ApprovalStatus `json:"approvalStatus,omitempty"`
	SLAStatus      *SLAStatus      `json:"slaStatus,omitempty"`
	Title          *string         `json:"title,omitempty"`
	Description    *string         `json:"description,omitempty"`
	Assignee       *Person         `json:"assignee,omitempty"`
	DueDate        *time.Time      `json:"dueDate,omitempty"`
	SuspendedDate  *time.Time      `json:"suspendedDate,omitempty"`
	CompletedDate  *time.Time      `json:"completedDate,omitempty"`
	DelayDays      *int            `json:"delayDays,omitempty"`
}

// Fields lists the ticket keys the patch replaces.
func (p TicketPatch) Fields() []string {
	var keys []string
	add := func(set bool, key string) {
		if set {
			keys = append(keys, key)
		}
	}
	add(p.Status != nil, "status")
	add(p.Priority != nil, "priority")
	add(p.ApprovalStatus != nil, "approvalStatus")
	add(p.SLAStatus != nil, "slaStatus")
	add(p.Title != nil, "title")
	add(p.Description != nil, "description")
	add(p.Assignee != nil, "assignee")
	add(p.DueDate != nil, "dueDate")
	add(p.SuspendedDate != nil, "suspendedDate")
	add(p.CompletedDate != nil, "completedDate")
	add(p.DelayDays != nil, "delayDays")
	return keys
}

// Empty reports whether the patch changes nothing.
func (p TicketPatch) Empty() bool {
	return p == TicketPatch{}
}

// Apply returns a copy of t with the patch fields replaced.
func (p TicketPatch) Apply(t Ticket) Ticket {
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.ApprovalStatus != nil {
		t.ApprovalStatus = *p.ApprovalStatus
	}
	if p.SLAStatus != nil {
		t.SLAStatus = *p.SLAStatus
	}
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Assignee != nil {
		assignee := *p.Assignee
		t.Assignee = &assignee
	}
	if p.DueDate != nil {
		due := *p.DueDate
		t.DueDate = &due
	}
	if p.SuspendedDate != nil {
		suspended := *p.SuspendedDate
		t.SuspendedDate = &suspended
	}
	if p.CompletedDate != nil {
		completed := *p.CompletedDate
		t.CompletedDate = &completed
	}
	if p.DelayDays != nil {
		t.DelayDays = *p.DelayDays
	}
	return t
}

var requiredTicketKeys = sync.OnceValue(func() []string {
	rt := reflect.TypeOf(Ticket{})
	keys := make([]string, 0, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		name, opts, _ := strings.Cut(rt.Field(i).Tag.Get("json"), ",")
		if name == "" || name == "-" || strings.Contains(opts, "omitempty") {
			continue
		}
		keys = append(keys, name)
	}
	return keys
})

// RequiredTicketKeys returns the JSON keys every serialized ticket carries.
func RequiredTicketKeys() []string {
	return requiredTicketKeys()
}
