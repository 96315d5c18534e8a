package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"restaurant-review-api/apperr"
	"restaurant-review-api/services"
)

// Pinger reports whether the backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers groups the HTTP handlers. Errors are attached with c.Error and
// rendered by middleware.ErrorHandler
type Handlers struct {
	users       *services.UserService
	restaurants *services.RestaurantService
	store       Pinger
	storeName   string
}

func New(users *services.UserService, restaurants *services.RestaurantService, store Pinger, storeName string) *Handlers {
	return &Handlers{
		users:       users,
		restaurants: restaurants,
		store:       store,
		storeName:   storeName,
	}
}

// Health pings the store and reports the service status
func (h *Handlers) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status, code := "healthy", http.StatusOK
	if err := h.store.Ping(ctx); err != nil {
		status, code = "unavailable", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":  status,
		"service": "Restaurant Review API",
		"store":   h.storeName,
	})
}

func invalidInputs(err error) error {
	return apperr.Validation("Invalid inputs passed.", err)
}
