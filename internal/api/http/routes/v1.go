package routes

import (
	"github.com/gin-gonic/gin"

	alertshttp "github.com/jfslima/licita-tracker-sibal-view-sub002/internal/alerts/http"
	"github.com/jfslima/licita-tracker-sibal-view-sub002/internal/chat"
	chathttp "github.com/jfslima/licita-tracker-sibal-view-sub002/internal/chat/http"
	monitorhttp "github.com/jfslima/licita-tracker-sibal-view-sub002/internal/monitor/http"
	noticeshttp "github.com/jfslima/licita-tracker-sibal-view-sub002/internal/notices/http"
	watcheshttp "github.com/jfslima/licita-tracker-sibal-view-sub002/internal/watches/http"
)

// V1Deps carries the optional stores; a nil field leaves its routes out.
type V1Deps struct {
	Chat    *chat.Service
	Scorer  noticeshttp.RiskScorer
	Notices noticeshttp.Store
	Watches watcheshttp.Store
	Alerts  alertshttp.Source
	Monitor monitorhttp.Runner
}

func RegisterV1(api *gin.RouterGroup, dep V1Deps) {
	chathttp.New(dep.Chat).Register(api)

	if dep.Notices != nil {
		noticeshttp.New(dep.Notices, dep.Scorer).Register(api.Group("/notices"))
	}
	if dep.Watches != nil {
		watcheshttp.New(dep.Watches).Register(api.Group("/watches"))
	}
	if dep.Alerts != nil {
		alertshttp.New(dep.Alerts).Register(api.Group("/alerts"))
	}
	if dep.Monitor != nil {
		monitorhttp.New(dep.Monitor).Register(api.Group("/monitor"))
	}
}
