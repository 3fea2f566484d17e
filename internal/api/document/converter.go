package document

import (
	"github.com/futig/docqa-backend/internal/entity"
	"github.com/futig/docqa-backend/internal/pkg/formatter"
)

func toQueryResponse(answer entity.Answer) *entity.QueryResponse {
	sources := answer.Sources
	if sources == nil {
		sources = []entity.Source{}
	}
	return &entity.QueryResponse{
		Answer:  answer.Text,
		Sources: sources,
	}
}

func toReport(req *entity.QueryRequest, answer entity.Answer) formatter.Report {
	return formatter.Report{
		SessionID: req.SessionID,
		Question:  req.Question,
		Answer:    answer.Text,
		Sources:   answer.Sources,
	}
}
