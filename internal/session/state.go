package session

// Phase is where a session is in its ingestion cycle.
type Phase string

const (
	PhaseIdle      Phase = "IDLE"
	PhaseIngesting Phase = "INGESTING"
	PhaseReady     Phase = "READY"
	PhaseFailed    Phase = "FAILED"
)

// NoFileMessage is shown when an ingestion is started without a file.
const NoFileMessage = "No file uploaded."

// State is one document's text with its derived label and summary. A State
// is never modified after it is published; a new ingestion replaces it.
type State struct {
	Text    string
	DocType string
	Summary string
}

// ErrorSurface is the ingestion error channel shown to the user.
type ErrorSurface struct {
	Visible bool
	Message string
}

// Outcome is what Ingest reports. Exactly one of (DocType, Summary) or
// ErrorMessage is set.
type Outcome struct {
	DocType      string
	Summary      string
	ErrorMessage string
	// Superseded is true when a newer ingestion started before this one
	// finished; the outcome was discarded and did not touch the session.
	Superseded bool
}

func (o Outcome) Failed() bool { return o.ErrorMessage != "" }

// Snapshot is a consistent view of a session at one instant.
type Snapshot struct {
	ID    string
	Phase Phase
	State *State // nil when absent
	Error ErrorSurface
}
