// middleware/auth.go
package middleware

import (
	"log"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

func jwtSecret() []byte {
	secret := os.Getenv("JWT_SECRET_KEY")
	if secret == "" {
		log.Fatal("JWT_SECRET_KEY environment variable not set")
	}
	return []byte(secret)
}

func parseUserID(authHeader string, secret []byte) (string, bool) {
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	raw := strings.TrimPrefix(authHeader, "Bearer ")

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	})
	if err != nil || !token.Valid || claims.Subject == "" {
		return "", false
	}
	return claims.Subject, true
}

// RequireUser rejects requests without a valid session token and puts
// the user id in locals for the handler.
func RequireUser() fiber.Handler {
	secret := jwtSecret()

	return func(c *fiber.Ctx) error {
		userID, ok := parseUserID(c.Get("Authorization"), secret)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "error": "Not authenticated"})
		}
		c.Locals("user_id", userID)
		return c.Next()
	}
}

// OptionalUser attaches the user id when a valid token is present and
// lets the request through either way. Pages that render for anonymous
// visitors but personalize for members sit behind this.
func OptionalUser() fiber.Handler {
	secret := jwtSecret()

	return func(c *fiber.Ctx) error {
		if userID, ok := parseUserID(c.Get("Authorization"), secret); ok {
			c.Locals("user_id", userID)
		}
		return c.Next()
	}
}
