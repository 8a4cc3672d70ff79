// Package handlers implements the front API endpoints consumed by the web UI.
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/nextshorts/nextshorts/internal/models"
)

// ContextUserKey is the gin context key holding the authenticated user.
const ContextUserKey = "authUser"

// getUser returns the authenticated user placed by the auth middleware.
func getUser(c *gin.Context) *models.User {
	value, ok := c.Get(ContextUserKey)
	if !ok {
		return nil
	}
	user, ok := value.(*models.User)
	if !ok {
		return nil
	}
	return user
}
