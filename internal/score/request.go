package score

import (
	"time"

	"github.com/insightdelivered/extrato-analyzer/internal/models"
)

// Request is the input accepted by score consumers. PersonalData is carried
// through for callers that collect it; the formula does not read it.
type Request struct {
	Transactions []models.Transaction `json:"transactions"`
	PersonalData map[string]any       `json:"personalData,omitempty"`
	AsOf         time.Time            `json:"asOf"`
}

// Response is the score envelope returned to consumers.
type Response struct {
	CreditScore int    `json:"credit_score"`
	RiskLevel   string `json:"risk_level"`
	Success     bool   `json:"success"`
}

// Evaluate scores req. A zero AsOf is rejected by leaving Success false,
// so callers must resolve "now" themselves.
func (e Engine) Evaluate(req Request) Response {
	if req.AsOf.IsZero() {
		return Response{CreditScore: Min, RiskLevel: RiskLevel(Min)}
	}
	s := e.Score(req.Transactions, req.AsOf)
	return Response{
		CreditScore: s,
		RiskLevel:   RiskLevel(s),
		Success:     true,
	}
}
