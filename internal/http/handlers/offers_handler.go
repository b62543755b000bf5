// Recent offers handler.
//
// Exposes a read-only view of what the bot has been broadcasting:
//   - GET /offers/recent
//
// Returns the 20 most recently seen offers, newest first. Backs the small
// dashboard page that lists current deals.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dfcarvalho/go-promo-bot/internal/domain"
	"github.com/dfcarvalho/go-promo-bot/internal/repo"
)

// recentOffersLimit is the page size of GET /offers/recent.
const recentOffersLimit = 20

// RecentOffersResponse is the JSON body of GET /offers/recent.
type RecentOffersResponse struct {
	Offers []domain.Offer `json:"offers"`
}

// RecentOffers returns the newest stored offers ordered by last_seen.
func (h *Handlers) RecentOffers(c *gin.Context) {
	offers, err := repo.ListRecentOffers(c.Request.Context(), h.db, recentOffersLimit)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "recent offers query failed")
		return
	}
	if offers == nil {
		offers = []domain.Offer{}
	}
	ok(c, http.StatusOK, RecentOffersResponse{Offers: offers})
}
