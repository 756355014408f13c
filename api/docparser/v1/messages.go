// Package docparserv1 defines the docparser.v1.DocumentService wire contract.
// Messages are plain structs encoded with the JSON codec registered by this
// package.
package docparserv1

// Phase values mirror the session state machine.
const (
	PhaseIdle      = "IDLE"
	PhaseIngesting = "INGESTING"
	PhaseReady     = "READY"
	PhaseFailed    = "FAILED"
)

type Session struct {
	Id           string `json:"id"`
	Phase        string `json:"phase"`
	DocType      string `json:"doc_type,omitempty"`
	Summary      string `json:"summary,omitempty"`
	TextChars    int    `json:"text_chars,omitempty"`
	ErrorVisible bool   `json:"error_visible"`
	ErrorMessage string `json:"error_message,omitempty"`
}

type CreateSessionRequest struct {
	// SessionId is optional; the server assigns one when empty.
	SessionId string `json:"session_id,omitempty"`
}

type CreateSessionResponse struct {
	Session *Session `json:"session"`
}

type IngestRequest struct {
	SessionId string `json:"session_id"`
	Path      string `json:"path"`
	// Async queues the attempt and returns at once; poll GetSession for the result.
	Async bool `json:"async,omitempty"`
}

type IngestResponse struct {
	Phase        string `json:"phase"`
	DocType      string `json:"doc_type,omitempty"`
	Summary      string `json:"summary,omitempty"`
	ErrorVisible bool   `json:"error_visible"`
	ErrorMessage string `json:"error_message,omitempty"`
	Superseded   bool   `json:"superseded,omitempty"`
	Queued       bool   `json:"queued,omitempty"`
}

type AskRequest struct {
	SessionId string `json:"session_id"`
	Question  string `json:"question"`
}

type AskResponse struct {
	Answer string `json:"answer"`
}

type GetSessionRequest struct {
	SessionId string `json:"session_id"`
}

type GetSessionResponse struct {
	Session *Session `json:"session"`
}

type Job struct {
	Id           string `json:"id"`
	SessionId    string `json:"session_id"`
	Filename     string `json:"filename,omitempty"`
	Format       string `json:"format,omitempty"`
	Status       string `json:"status"`
	DocType      string `json:"doc_type,omitempty"`
	TextChars    int    `json:"text_chars,omitempty"`
	ErrorKind    string `json:"error_kind,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
	StartedAt    string `json:"started_at"`
	FinishedAt   string `json:"finished_at,omitempty"`
}

type ListJobsRequest struct {
	SessionId string `json:"session_id,omitempty"`
	Status    string `json:"status,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

type ListJobsResponse struct {
	Jobs []*Job `json:"jobs"`
}

type ExportJobsRequest struct {
	SessionId string `json:"session_id,omitempty"`
	Status    string `json:"status,omitempty"`
	// FromDate and ToDate are optional YYYY-MM-DD bounds on the start time.
	FromDate string `json:"from_date,omitempty"`
	ToDate   string `json:"to_date,omitempty"`
}

type ExportJobsResponse struct {
	Xlsx []byte `json:"xlsx"`
}

func (x *CreateSessionRequest) GetSessionId() string {
	if x != nil {
		return x.SessionId
	}
	return ""
}

func (x *IngestRequest) GetSessionId() string {
	if x != nil {
		return x.SessionId
	}
	return ""
}

func (x *IngestRequest) GetPath() string {
	if x != nil {
		return x.Path
	}
	return ""
}

func (x *IngestRequest) GetAsync() bool {
	if x != nil {
		return x.Async
	}
	return false
}

func (x *AskRequest) GetSessionId() string {
	if x != nil {
		return x.SessionId
	}
	return ""
}

func (x *AskRequest) GetQuestion() string {
	if x != nil {
		return x.Question
	}
	return ""
}

func (x *GetSessionRequest) GetSessionId() string {
	if x != nil {
		return x.SessionId
	}
	return ""
}

func (x *ListJobsRequest) GetSessionId() string {
	if x != nil {
		return x.SessionId
	}
	return ""
}

func (x *ListJobsRequest) GetStatus() string {
	if x != nil {
		return x.Status
	}
	return ""
}

func (x *ListJobsRequest) GetLimit() int {
	if x != nil {
		return x.Limit
	}
	return 0
}

func (x *ExportJobsRequest) GetSessionId() string {
	if x != nil {
		return x.SessionId
	}
	return ""
}

func (x *ExportJobsRequest) GetStatus() string {
	if x != nil {
		return x.Status
	}
	return ""
}

func (x *ExportJobsRequest) GetFromDate() string {
	if x != nil {
		return x.FromDate
	}
	return ""
}

func (x *ExportJobsRequest) GetToDate() string {
	if x != nil {
		return x.ToDate
	}
	return ""
}
