package middleware

import (
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const usernameKey = "Username"

// AuthRequired is a simple middleware to check the session.
func AuthRequired(c *gin.Context) {
	session := sessions.Default(c)
	user := session.Get(usernameKey)
	if user == nil {
		// Abort the request with the appropriate error code
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	// Continue down the chain to handler etc
	c.Next()
}

// CurrentUsername returns the logged-in user of this request. Must only be
// called behind AuthRequired.
func CurrentUsername(c *gin.Context) string {
	session := sessions.Default(c)
	user, _ := session.Get(usernameKey).(string)
	return user
}

// SetSessionUser stores the username in the cookie session after login.
func SetSessionUser(c *gin.Context, username string) error {
	session := sessions.Default(c)
	session.Set(usernameKey, username)
	return session.Save()
}

// ClearSessionUser removes the username from the cookie session. Returns an
// error if there was no logged-in user.
func ClearSessionUser(c *gin.Context) error {
	session := sessions.Default(c)
	if session.Get(usernameKey) == nil {
		return errors.New("no session")
	}
	session.Delete(usernameKey)
	return session.Save()
}

func jwtSecret() []byte {
	return []byte(os.Getenv("JWT_SECRET"))
}

// GenerateSocketToken mints a short-lived JWT the browser presents in the
// socket.io handshake, where cookie sessions are not available.
func GenerateSocketToken(username string) (string, error) {
	claims := jwt.MapClaims{
		"username": username,
		"exp":      time.Now().Add(12 * time.Hour).Unix(),
		"iat":      time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret())
}

// VerifySocketToken validates a handshake JWT and returns the username it
// was minted for.
func VerifySocketToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return jwtSecret(), nil
	})
	if err != nil {
		return "", err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", errors.New("invalid token")
	}
	username, ok := claims["username"].(string)
	if !ok || username == "" {
		return "", errors.New("token has no username")
	}
	return username, nil
}
