package entity

type ResultFormat string

const (
	FormatMarkdown ResultFormat = "markdown"
	FormatDOCX     ResultFormat = "docx"
	FormatPDF      ResultFormat = "pdf"
)

func (f ResultFormat) IsValid() bool {
	switch f {
	case FormatMarkdown, FormatDOCX, FormatPDF:
		return true
	default:
		return false
	}
}

type UploadResponse struct {
	Status         string `json:"status"`
	SessionID      string `json:"session_id"`
	DocumentsAdded int    `json:"documents_added"`
	Message        string `json:"message"`
}

type QueryRequest struct {
	SessionID string `json:"session_id"`
	Question  string `json:"question"`
}

type QueryResponse struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources"`
}

type ClearResponse struct {
	Status  string `json:"status"`
	Deleted int    `json:"deleted"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

type SessionStatsResponse struct {
	SessionID string `json:"session_id"`
	Documents int    `json:"documents"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
