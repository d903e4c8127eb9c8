// Package handler contains the gin request handlers. Each handler is a
// constructor taking its dependencies explicitly and returning a
// gin.HandlerFunc, so routes stay testable without ambient state.
package handler

import "github.com/gin-gonic/gin"

// UserIDKey is the gin context key the session middleware stores the
// authenticated user identity under.
const UserIDKey = "botgate_user"

// UserID returns the authenticated user identity for a request.
func UserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}
