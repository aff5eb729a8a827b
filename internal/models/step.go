package models

// Step identifies one stage of the event creation wizard
type Step string

const (
	StepBasicDetails   Step = "basicDetails"
	StepVenues         Step = "venues"
	StepDates          Step = "dates"
	StepTimes          Step = "times"
	StepTickets        Step = "tickets"
	StepAssignTickets  Step = "assigntickets"
	StepMedia          Step = "media"
	StepAdditionalInfo Step = "additionalInfo"
	StepReview         Step = "review"
)

// StepStatus represents the completion state of a step
type StepStatus string

const (
	StepIncomplete StepStatus = "incomplete"
	StepCurrent    StepStatus = "current"
	StepComplete   StepStatus = "complete"
)

// StepState is the status and navigability of a single step
type StepState struct {
	Step        Step       `json:"step"`
	Status      StepStatus `json:"status"`
	IsClickable bool       `json:"isClickable"`
}

// SubmissionState tracks the create call issued from the review step
type SubmissionState string

const (
	SubmissionIdle      SubmissionState = "idle"
	SubmissionPending   SubmissionState = "pending"
	SubmissionSucceeded SubmissionState = "succeeded"
	SubmissionFailed    SubmissionState = "failed"
)

// Submission is the review step's pending/success/failure sub-state
type Submission struct {
	State    SubmissionState `json:"state"`
	EventID  string          `json:"eventId,omitempty"`
	Error    string          `json:"error,omitempty"`
	Attempts int             `json:"attempts"`
}
