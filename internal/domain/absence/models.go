package absence

import "time"

const (
	TypeVacation = "vacation"
	TypeSick     = "sick"
	TypePersonal = "personal"
	TypeOther    = "other"
)

const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusCancelled = "cancelled"
)

type Request struct {
	ID              string     `json:"id"`
	UserID          string     `json:"userId"`
	Type            string     `json:"type"`
	StartDate       time.Time  `json:"startDate"`
	EndDate         time.Time  `json:"endDate"`
	Reason          string     `json:"reason"`
	Status          string     `json:"status"`
	HoursAffected   float64    `json:"hoursAffected"`
	CreatedAt       time.Time  `json:"createdAt"`
	ApprovedBy      string     `json:"approvedBy,omitempty"`
	ApprovedAt      *time.Time `json:"approvedAt,omitempty"`
	RejectionReason string     `json:"rejectionReason,omitempty"`
}

// Input is what a requester supplies when creating or editing a request.
type Input struct {
	Type      string
	StartDate time.Time
	EndDate   time.Time
	Reason    string
}

// Decision is a status change applied by Store.Transition.
type Decision struct {
	From            string
	To              string
	DecidedBy       string
	RejectionReason string
}

func ValidType(t string) bool {
	switch t {
	case TypeVacation, TypeSick, TypePersonal, TypeOther:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed from status.
func Terminal(status string) bool {
	return status == StatusApproved || status == StatusRejected || status == StatusCancelled
}
