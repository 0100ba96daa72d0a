package tradeclient

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"

	"github.com/abdoElHodaky/tradsys-core/pkg/types"
)

// rejectionCacheTTL matches SPEC_FULL.md DOM-7's 5-minute window for
// the last-N-rejections view.
const rejectionCacheTTL = 5 * time.Minute

const recentRejectionsKey = "recent"

const maxRecentRejections = 50

// Rejection records one risk-gate or exchange rejection for display on
// /riskz.
type Rejection struct {
	Ticker types.TickerId     `json:"ticker"`
	Side   string             `json:"side"`
	Qty    types.Qty          `json:"qty"`
	Reason types.RejectReason `json:"reason"`
	At     int64              `json:"at_unix_nano"`
}

// RejectionLog is a short-TTL cache of recent rejections, read by the
// admin /riskz handler.
type RejectionLog struct {
	c *cache.Cache
}

// NewRejectionLog constructs a cache with DOM-7's 5-minute TTL.
func NewRejectionLog() *RejectionLog {
	return &RejectionLog{c: cache.New(rejectionCacheTTL, rejectionCacheTTL*2)}
}

// Record appends a rejection, trimming to maxRecentRejections.
func (l *RejectionLog) Record(r Rejection) {
	existing, _ := l.recent()
	existing = append(existing, r)
	if len(existing) > maxRecentRejections {
		existing = existing[len(existing)-maxRecentRejections:]
	}
	l.c.Set(recentRejectionsKey, existing, rejectionCacheTTL)
}

func (l *RejectionLog) recent() ([]Rejection, bool) {
	v, found := l.c.Get(recentRejectionsKey)
	if !found {
		return nil, false
	}
	return v.([]Rejection), true
}

// AdminState is the read-only snapshot the admin handlers serve; the
// state function passed to NewAdminRouter (Client.AdminState) builds a
// fresh one on every request.
type AdminState struct {
	Position types.Position
	Features types.TickerFeatures
	Limits   types.RiskLimits
}

// NewAdminRouter builds the trade client's admin HTTP surface (spec.md
// §4.11): current position/features, and risk limits plus recent
// rejections.
func NewAdminRouter(state func() AdminState, rejections *RejectionLog) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       12 * time.Hour,
	}))

	r.GET("/positionz", func(c *gin.Context) {
		s := state()
		c.JSON(http.StatusOK, gin.H{
			"position": s.Position,
			"features": s.Features,
		})
	})

	r.GET("/riskz", func(c *gin.Context) {
		s := state()
		recent, _ := rejections.recent()
		c.JSON(http.StatusOK, gin.H{
			"limits":            s.Limits,
			"recent_rejections": recent,
		})
	})

	return r
}
