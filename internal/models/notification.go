package models

// Severity is the visual weight of a toast
type Severity string

const (
	SeverityDefault     Severity = "default"
	SeverityDestructive Severity = "destructive"
)

// Toast is a fire-and-forget notification shown to the user
type Toast struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Severity    Severity `json:"severity"`
}

// LiveMessageType identifies a message on the live session channel
type LiveMessageType string

const (
	LiveToast      LiveMessageType = "toast"
	LiveLocation   LiveMessageType = "location"
	LiveSubmission LiveMessageType = "submission"
	LiveNavigate   LiveMessageType = "navigate"
	LiveError      LiveMessageType = "error"
)

// LiveMessage is exchanged over the live channel of a session
type LiveMessage struct {
	Type       LiveMessageType `json:"type"`
	SessionID  string          `json:"sessionId,omitempty"`
	Toast      *Toast          `json:"toast,omitempty"`
	Location   Step            `json:"location,omitempty"`
	Submission *Submission     `json:"submission,omitempty"`
	Message    string          `json:"message,omitempty"`
}
