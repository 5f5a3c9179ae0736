package model

import (
	"time"

	"cloud.google.com/go/civil"
)

// JobRequest is a farmer's request for a crew, moved through the staged
// approval workflow by explicit user actions
type JobRequest struct {
	ID             string     `json:"id"`
	FarmerName     string     `json:"farmer_name"`
	FarmerMobile   string     `json:"farmer_mobile,omitempty"`
	Village        string     `json:"village"`
	WorkType       string     `json:"work_type"`
	CrewSizeNeeded int        `json:"crew_size_needed"`
	WorkFrom       civil.Date `json:"work_from"`
	WorkTo         civil.Date `json:"work_to"`
	Stage          string     `json:"stage"`
	ContractorID   int64      `json:"contractor_id,omitempty"`
	AllocatedBy    string     `json:"allocated_by,omitempty"`
	ApprovedBy     string     `json:"approved_by,omitempty"`
	RejectedBy     string     `json:"rejected_by,omitempty"`
	RejectReason   string     `json:"reject_reason,omitempty"`
	PaymentAmount  float64    `json:"payment_amount,omitempty"`
	Rating         int        `json:"rating,omitempty"`
	ReviewComments string     `json:"review_comments,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Workflow stage constants. A request sits in the stage whose action is
// pending: intake means awaiting allocation, allocation means awaiting the
// operations head decision, and so on.
const (
	StageIntake     = "intake"
	StageAllocation = "allocation"
	StageExecution  = "execution"
	StagePayment    = "payment"
	StageReview     = "review"
	StageClosed     = "closed"
	StageRejected   = "rejected"
)
