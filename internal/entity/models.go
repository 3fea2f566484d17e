package entity

// SourceKind is the extraction path chosen for an uploaded file
type SourceKind string

const (
	SourceKindPDF   SourceKind = "pdf"
	SourceKindImage SourceKind = "image"
	SourceKindDOCX  SourceKind = "docx"
	SourceKindText  SourceKind = "text"
)

type FileData struct {
	Filename string
	Content  []byte
}

// Page is the text of one page of an uploaded file. Number is 1-based.
type Page struct {
	SessionID string
	Filename  string
	Number    int
	Text      string
}

type ChunkMeta struct {
	SessionID string `json:"session_id"`
	Filename  string `json:"filename"`
	Page      int    `json:"page"`
}

// Chunk is the unit of retrieval. Embedding is set by the indexer and the
// chunk is not modified after that. Score is only populated on search and
// rerank results.
type Chunk struct {
	ID        string
	Content   string
	Meta      ChunkMeta
	Embedding []float32
	Score     float64
}

// Outcome reports how a pipeline stage finished
type Outcome string

const (
	OutcomeOK       Outcome = "ok"
	OutcomeDegraded Outcome = "degraded"
	OutcomeFailed   Outcome = "failed"
)

// Extraction is the result of turning one file into page texts
type Extraction struct {
	Kind    SourceKind
	Pages   []string
	Outcome Outcome
}

// IndexReport summarises one indexing run
type IndexReport struct {
	Written       int
	Skipped       int
	FailedBatches int
	Outcome       Outcome
}

// Generation is the output of the answer generator
type Generation struct {
	Text    string
	Outcome Outcome
}

// OCRRegion is one recognised text block. Confidence is in [0, 1].
type OCRRegion struct {
	Text       string
	Confidence float64
}
