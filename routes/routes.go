package routes

import (
	"github.com/gin-gonic/gin"

	"restaurant-review-api/handlers"
	"restaurant-review-api/logging"
	"restaurant-review-api/middleware"
)

// NewRouter builds the gin engine with middleware and every route registered.
func NewRouter(h *handlers.Handlers, log logging.Logger) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.Recovery(log),
		middleware.RequestLogger(log),
		middleware.CORS(),
		middleware.ErrorHandler(log),
	)
	r.NoRoute(middleware.RouteNotFound)

	SetupRoutes(r, h)
	return r
}

func SetupRoutes(r *gin.Engine, h *handlers.Handlers) {
	r.GET("/health", h.Health)

	api := r.Group("/api/v1")

	// ── Users ──────────────────────────────────────────────────────
	users := api.Group("/users")
	{
		users.GET("", h.GetAllUsers)
		users.POST("", h.Signup)
		users.POST("/account", h.Login)
	}

	// ── Restaurants ────────────────────────────────────────────────
	restaurants := api.Group("/restaurants")
	{
		restaurants.GET("", h.GetAllRestaurants)
		restaurants.GET("/:rid", h.GetRestaurantByID)
		restaurants.GET("/user/:uid", h.GetRestaurantsByUserID)
		restaurants.POST("", h.CreateRestaurant)
		restaurants.PATCH("/:rid", h.UpdateRestaurant)
		restaurants.DELETE("/:rid", h.DeleteRestaurant)
	}
}
