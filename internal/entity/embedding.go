package entity

type EmbedRequest struct {
	Inputs    []string `json:"inputs"`
	Normalize bool     `json:"normalize"`
	Truncate  bool     `json:"truncate"`
}

type RerankRequest struct {
	Query     string   `json:"query"`
	Texts     []string `json:"texts"`
	RawScores bool     `json:"raw_scores"`
}

type RerankResult struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

type OCRResponse struct {
	Results []OCRResult `json:"results"`
}

type OCRResult struct {
	Box        [][]float64 `json:"box,omitempty"`
	Text       string      `json:"text"`
	Confidence *float64    `json:"confidence,omitempty"`
}
