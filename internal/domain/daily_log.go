package domain

import "time"

// ActivityCode classifies a daily log row.
type ActivityCode string

const (
	ActivityCodeTR    ActivityCode = "TR"
	ActivityCodePM    ActivityCode = "PM"
	ActivityCodeWF    ActivityCode = "WF"
	ActivityCodeOther ActivityCode = "Other"
)

// YesNo is the picklist answer used by timesheet rows.
type YesNo string

const (
	Yes YesNo = "Yes"
	No  YesNo = "No"
)

// DailyLog is a timesheet row. IsEditing and IsNew are transient edit
// state carried with the row.
type DailyLog struct {
	ID              string       `json:"id"`
	WorkDate        time.Time    `json:"workDate"`
	TicketID        *string      `json:"ticketId"`
	SiteID          string       `json:"siteId"`
	ActivityCode    ActivityCode `json:"activityCode"`
	StartTime       string       `json:"startTime"`
	EndTime         string       `json:"endTime"`
	RemoteVisit     YesNo        `json:"remoteVisit"`
	Overtime        string       `json:"overtime"`
	Distance        string       `json:"distance"`
	Remarks         string       `json:"remarks"`
	HotelStay       YesNo        `json:"hotelStay"`
	ApprovalStatus  string       `json:"approvalStatus"`
	ApprovalRemarks string       `json:"approvalRemarks"`
	HasAttachment   bool         `json:"hasAttachment"`
	AttachmentName  string       `json:"attachmentName,omitempty"`
	IsEditing       bool         `json:"isEditing,omitempty"`
	IsNew           bool         `json:"isNew,omitempty"`
}

// DailyLogPatch carries editable row fields. Nil fields are untouched.
type DailyLogPatch struct {
	WorkDate        *time.Time    `json:"workDate,omitempty"`
	TicketID        *string       `json:"ticketId,omitempty"`
	SiteID          *string       `json:"siteId,omitempty"`
	ActivityCode    *ActivityCode `json:"activityCode,omitempty"`
	StartTime       *string       `json:"startTime,omitempty"`
	EndTime         *string       `json:"endTime,omitempty"`
	RemoteVisit     *YesNo        `json:"remoteVisit,omitempty"`
	Overtime        *string       `json:"overtime,omitempty"`
	Distance        *string       `json:"distance,omitempty"`
	Remarks         *string       `json:"remarks,omitempty"`
	HotelStay       *YesNo        `json:"hotelStay,omitempty"`
	ApprovalStatus  *string       `json:"approvalStatus,omitempty"`
	ApprovalRemarks *string       `json:"approvalRemarks,omitempty"`
}

// Apply returns a copy of l with the patch fields replaced. An empty
// ticket id clears the link.
func (p DailyLogPatch) Apply(l DailyLog) DailyLog {
	if p.WorkDate != nil {
		l.WorkDate = *p.WorkDate
	}
	if p.TicketID != nil {
		if *p.TicketID == "" {
			l.TicketID = nil
		} else {
			id := *p.TicketID
			l.TicketID = &id
		}
	}
	if p.SiteID != nil {
		l.SiteID = *p.SiteID
	}
	if p.ActivityCode != nil {
		l.ActivityCode = *p.ActivityCode
	}
	if p.StartTime != nil {
		l.StartTime = *p.StartTime
	}
	if p.EndTime != nil {
		l.EndTime = *p.EndTime
	}
	if p.RemoteVisit != nil {
		l.RemoteVisit = *p.RemoteVisit
	}
	if p.Overtime != nil {
		l.Overtime = *p.Overtime
	}
	if p.Distance != nil {
		l.Distance = *p.Distance
	}
	if p.Remarks != nil {
		l.Remarks = *p.Remarks
	}
	if p.HotelStay != nil {
		l.HotelStay = *p.HotelStay
	}
	if p.ApprovalStatus != nil {
		l.ApprovalStatus = *p.ApprovalStatus
	}
	if p.ApprovalRemarks != nil {
		l.ApprovalRemarks = *p.ApprovalRemarks
	}
	return l
}

// LogOverview aggregates the timesheet header cards.
type LogOverview struct {
	TotalActivities  int    `json:"totalActivities"`
	TotalHours       string `json:"totalHours"`
	TotalDistance    string `json:"totalDistance"`
	ApprovedOvertime string `json:"approvedOvertime"`
	HotelNights      int    `json:"hotelNights"`
	BTREligibleDays  int    `json:"btrEligibleDays"`
}

// Site is a picklist entry resolving a site id to its label.
type Site struct {
	Label string `json:"label"`
	Value string `json:"value"`
}
