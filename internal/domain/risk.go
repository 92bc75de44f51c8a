package domain

type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// RiskAssessment is computed on demand and never persisted.
type RiskAssessment struct {
	NoticeID        string    `json:"notice_id,omitempty"`
	RiskLevel       RiskLevel `json:"risk_level"`
	RiskScore       int       `json:"risk_score"`
	RiskFactors     []string  `json:"risk_factors"`
	Recommendations []string  `json:"recommendations"`
}
