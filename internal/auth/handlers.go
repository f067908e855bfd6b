package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// LoginPayload defines the expected JSON structure for login requests.
type LoginPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Mock session token for MVP. In a real app, use JWT or a secure session store.
const mockSessionToken = "SUPER_SECRET_MVP_TOKEN"
const sessionCookieName = "manager_session_token"

// LoginHandler handles manager login requests.
// It checks credentials against environment-configured values.
// On success, it sets a simple session cookie (for MVP).
func LoginHandler(c *gin.Context) {
	var payload LoginPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	// LoadManagerCredentials() should have been called at application startup.
	if managerUsername == "" || managerPassword == "" {
		// This indicates a server configuration issue.
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Manager credentials not configured on server"})
		return
	}

	if payload.Username == managerUsername && payload.Password == managerPassword {
		// Simple cookie for MVP. HttpOnly to prevent XSS; Secure=false for
		// local dev without HTTPS.
		c.SetCookie(sessionCookieName, mockSessionToken, 3600, "/", "", false, true)
		c.JSON(http.StatusOK, gin.H{
			"message": "Login successful",
			"token":   mockSessionToken,
		})
	} else {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
	}
}

// LogoutHandler clears the session cookie.
func LogoutHandler(c *gin.Context) {
	c.SetCookie(sessionCookieName, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logout successful"})
}
