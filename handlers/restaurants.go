package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"restaurant-review-api/services"
)

type CreateRestaurantRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description" binding:"required,min=5"`
	Address     string `json:"address" binding:"required"`
	Creator     string `json:"creator" binding:"required"`
}

type UpdateRestaurantRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description" binding:"required,min=5"`
}

func (h *Handlers) GetAllRestaurants(c *gin.Context) {
	restaurants, err := h.restaurants.GetAllRestaurants(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"restaurants": restaurants})
}

func (h *Handlers) GetRestaurantByID(c *gin.Context) {
	restaurant, err := h.restaurants.GetRestaurantByID(c.Request.Context(), c.Param("rid"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"restaurant": restaurant})
}

// GetRestaurantsByUserID returns 404 when the user has no restaurants
func (h *Handlers) GetRestaurantsByUserID(c *gin.Context) {
	restaurants, err := h.restaurants.GetRestaurantsByUserID(c.Request.Context(), c.Param("uid"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"restaurants": restaurants})
}

// CreateRestaurant creates a restaurant and links it to its creator
func (h *Handlers) CreateRestaurant(c *gin.Context) {
	var req CreateRestaurantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(invalidInputs(err))
		return
	}

	restaurant, err := h.restaurants.CreateRestaurant(c.Request.Context(), services.CreateRestaurantInput{
		Title:       req.Title,
		Description: req.Description,
		Address:     req.Address,
		Creator:     req.Creator,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"restaurant": restaurant})
}

// UpdateRestaurant changes title and description only
func (h *Handlers) UpdateRestaurant(c *gin.Context) {
	var req UpdateRestaurantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(invalidInputs(err))
		return
	}

	restaurant, err := h.restaurants.UpdateRestaurantByID(c.Request.Context(), c.Param("rid"), services.UpdateRestaurantInput{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"restaurant": restaurant})
}

// DeleteRestaurant removes a restaurant and unlinks it from its creator
func (h *Handlers) DeleteRestaurant(c *gin.Context) {
	if err := h.restaurants.DeleteRestaurant(c.Request.Context(), c.Param("rid")); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Deleted restaurant."})
}
