package alerts

import (
	"time"

	"github.com/jfslima/licita-tracker-sibal-view-sub002/internal/domain"
)

// Alert tells the dashboard that a new notice matched a watch.
type Alert struct {
	ID        string                `json:"id"`
	WatchID   string                `json:"watch_id"`
	WatchName string                `json:"watch_name"`
	Notice    domain.Notice         `json:"notice"`
	Risk      domain.RiskAssessment `json:"risk"`
	CreatedAt time.Time             `json:"created_at"`
}
