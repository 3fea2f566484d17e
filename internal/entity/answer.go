package entity

// AnswerStatus tells which branch of the query flow produced an answer
type AnswerStatus string

const (
	AnswerStatusOK            AnswerStatus = "ok"
	AnswerStatusEmptyQuestion AnswerStatus = "empty_question"
	AnswerStatusEmbedFailed   AnswerStatus = "embed_failed"
	AnswerStatusNoDocuments   AnswerStatus = "no_documents"
	AnswerStatusError         AnswerStatus = "error"
)

type Source struct {
	Filename string `json:"filename"`
	Page     int    `json:"page"`
	Snippet  string `json:"snippet"`
}

type Answer struct {
	Text       string
	Sources    []Source
	Status     AnswerStatus
	Rerank     Outcome
	Generation Outcome
}

// UploadResult is returned by the ingestion flow
type UploadResult struct {
	SessionID      string
	DocumentsAdded int
	FilesSkipped   int
	FilesFailed    int
}
