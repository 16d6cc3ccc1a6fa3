package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	infraRepo "github.com/tablewise/billing-api/internal/infrastructure/repository"
	"github.com/tablewise/billing-api/internal/presentation/http/dto/response"
)

// RestaurantMiddleware propagates the authenticated restaurant into the
// request context so repositories scope every query to it
func RestaurantMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		restaurantID := GetRestaurantID(c)
		if restaurantID == uuid.Nil {
			c.Next()
			return
		}

		// Also set restaurant ID in request context (for services/repositories)
		ctx := infraRepo.WithRestaurant(c.Request.Context(), restaurantID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// RequireRestaurant ensures a valid restaurant context exists
func RequireRestaurant() gin.HandlerFunc {
	return func(c *gin.Context) {
		restaurantID, exists := c.Get("restaurant_id")
		if !exists {
			response.BadRequest(c, "Restaurant context required")
			c.Abort()
			return
		}

		id, ok := restaurantID.(uuid.UUID)
		if !ok || id == uuid.Nil {
			response.BadRequest(c, "Invalid restaurant context")
			c.Abort()
			return
		}

		c.Next()
	}
}

// GetRestaurantID retrieves the restaurant ID from gin context
func GetRestaurantID(c *gin.Context) uuid.UUID {
	restaurantID, exists := c.Get("restaurant_id")
	if !exists {
		return uuid.Nil
	}
	id, ok := restaurantID.(uuid.UUID)
	if !ok {
		return uuid.Nil
	}
	return id
}
