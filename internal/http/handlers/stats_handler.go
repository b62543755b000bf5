// Delivery ledger stats handler.
//
// Exposes a small read-only aggregate over the delivery ledger:
//   - GET /stats
//
// Useful for operators checking whether broadcasts are flowing without
// digging through logs or Prometheus.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dfcarvalho/go-promo-bot/internal/repo"
)

// StatsResponse is the JSON body of GET /stats.
type StatsResponse struct {
	Attempts    int64      `json:"attempts"`
	Delivered   int64      `json:"delivered"`
	Failed      int64      `json:"failed"`
	LastAttempt *time.Time `json:"last_attempt,omitempty"`
}

// Stats returns aggregate delivery-ledger counters.
func (h *Handlers) Stats(c *gin.Context) {
	total, delivered, last, err := repo.DeliveryStats(c.Request.Context(), h.db)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "stats query failed")
		return
	}
	ok(c, http.StatusOK, StatsResponse{
		Attempts:    total,
		Delivered:   delivered,
		Failed:      total - delivered,
		LastAttempt: last,
	})
}
