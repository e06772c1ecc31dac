// services/auth_service_test.go
package services

import (
	"net/http"
	"testing"
	"time"

	"rithm-backend/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newAuthService(t *testing.T) (*AuthService, *gorm.DB) {
	t.Helper()
	t.Setenv("JWT_SECRET_KEY", "test-secret")
	t.Setenv("SENDGRID_API_KEY", "")
	db := openTestDB(t)
	return NewAuthService(db, NewMailerFromEnv()), db
}

func authApp(svc *AuthService, userID string) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if userID != "" {
			c.Locals("user_id", userID)
		}
		return c.Next()
	})
	app.Post("/register", svc.Register)
	app.Post("/login", svc.Login)
	app.Get("/me", svc.Me)
	app.Post("/verify", svc.VerifyEmail)
	app.Post("/verify/resend", svc.ResendVerification)
	return app
}

func registerAlice(t *testing.T, app *fiber.App) map[string]interface{} {
	t.Helper()
	status, body := doJSON(t, app, http.MethodPost, "/register", map[string]interface{}{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "correct horse",
	})
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, true, body["success"])
	return body
}

func TestRegister(t *testing.T) {
	svc, db := newAuthService(t)
	app := authApp(svc, "")

	body := registerAlice(t, app)
	assert.NotEmpty(t, body["token"])

	var user models.User
	require.NoError(t, db.Where("username = ?", "alice").First(&user).Error)
	assert.False(t, user.EmailVerified)
	assert.NotEqual(t, "correct horse", user.PasswordHash, "password must be hashed")

	var token models.EmailVerificationToken
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&token).Error)
	assert.Nil(t, token.UsedAt)
	assert.WithinDuration(t, time.Now().Add(verificationTokenTTL), token.ExpiresAt, time.Minute)
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newAuthService(t)
	app := authApp(svc, "")
	registerAlice(t, app)

	cases := []struct {
		name    string
		payload map[string]interface{}
		wantErr string
	}{
		{
			name:    "missing username",
			payload: map[string]interface{}{"email": "b@example.com", "password": "longenough"},
			wantErr: "Username and email are required",
		},
		{
			name:    "malformed email",
			payload: map[string]interface{}{"username": "bob", "email": "not-an-email", "password": "longenough"},
			wantErr: "Invalid email address",
		},
		{
			name:    "short password",
			payload: map[string]interface{}{"username": "bob", "email": "b@example.com", "password": "short"},
			wantErr: "Password must be at least 8 characters",
		},
		{
			name:    "duplicate username",
			payload: map[string]interface{}{"username": "alice", "email": "other@example.com", "password": "longenough"},
			wantErr: "Username or email already taken",
		},
		{
			name:    "duplicate email",
			payload: map[string]interface{}{"username": "alice2", "email": "alice@example.com", "password": "longenough"},
			wantErr: "Username or email already taken",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := doJSON(t, app, http.MethodPost, "/register", tc.payload)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, tc.wantErr, body["error"])
		})
	}
}

func TestLogin(t *testing.T) {
	svc, _ := newAuthService(t)
	app := authApp(svc, "")
	registerAlice(t, app)

	t.Run("by username", func(t *testing.T) {
		status, body := doJSON(t, app, http.MethodPost, "/login", map[string]interface{}{
			"username": "alice", "password": "correct horse",
		})
		assert.Equal(t, http.StatusOK, status)
		assert.NotEmpty(t, body["token"])
	})

	t.Run("by email", func(t *testing.T) {
		status, body := doJSON(t, app, http.MethodPost, "/login", map[string]interface{}{
			"username": "alice@example.com", "password": "correct horse",
		})
		assert.Equal(t, http.StatusOK, status)
		assert.NotEmpty(t, body["token"])
	})

	t.Run("wrong password", func(t *testing.T) {
		status, body := doJSON(t, app, http.MethodPost, "/login", map[string]interface{}{
			"username": "alice", "password": "wrong horse",
		})
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "Invalid username or password", body["error"])
	})

	t.Run("unknown user", func(t *testing.T) {
		status, body := doJSON(t, app, http.MethodPost, "/login", map[string]interface{}{
			"username": "mallory", "password": "whatever!",
		})
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "Invalid username or password", body["error"])
	})
}

func TestVerifyEmail(t *testing.T) {
	svc, db := newAuthService(t)
	app := authApp(svc, "")
	registerAlice(t, app)

	var token models.EmailVerificationToken
	require.NoError(t, db.First(&token).Error)

	status, body := doJSON(t, app, http.MethodPost, "/verify", map[string]interface{}{"token": token.Token})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])

	var user models.User
	require.NoError(t, db.Where("id = ?", token.UserID).First(&user).Error)
	assert.True(t, user.EmailVerified)

	t.Run("token cannot be replayed", func(t *testing.T) {
		status, body := doJSON(t, app, http.MethodPost, "/verify", map[string]interface{}{"token": token.Token})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "Invalid or expired verification token", body["error"])
	})

	t.Run("unknown token", func(t *testing.T) {
		status, body := doJSON(t, app, http.MethodPost, "/verify", map[string]interface{}{"token": "nope"})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "Invalid or expired verification token", body["error"])
	})
}

func TestVerifyEmailExpiredToken(t *testing.T) {
	svc, db := newAuthService(t)
	app := authApp(svc, "")
	registerAlice(t, app)

	var token models.EmailVerificationToken
	require.NoError(t, db.First(&token).Error)
	require.NoError(t, db.Model(&token).Update("expires_at", time.Now().Add(-time.Hour)).Error)

	status, body := doJSON(t, app, http.MethodPost, "/verify", map[string]interface{}{"token": token.Token})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid or expired verification token", body["error"])
}

func TestResendVerification(t *testing.T) {
	svc, db := newAuthService(t)
	registerAlice(t, authApp(svc, ""))

	var user models.User
	require.NoError(t, db.Where("username = ?", "alice").First(&user).Error)
	var original models.EmailVerificationToken
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&original).Error)

	app := authApp(svc, user.ID)
	status, body := doJSON(t, app, http.MethodPost, "/verify/resend", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])

	// The old token must be dead and a fresh one live
	var reloaded models.EmailVerificationToken
	require.NoError(t, db.Where("id = ?", original.ID).First(&reloaded).Error)
	assert.NotNil(t, reloaded.UsedAt)

	var live int64
	require.NoError(t, db.Model(&models.EmailVerificationToken{}).
		Where("user_id = ? AND used_at IS NULL", user.ID).Count(&live).Error)
	assert.Equal(t, int64(1), live)

	t.Run("verified account cannot resend", func(t *testing.T) {
		require.NoError(t, db.Model(&models.User{}).Where("id = ?", user.ID).Update("email_verified", true).Error)
		status, body := doJSON(t, app, http.MethodPost, "/verify/resend", nil)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "Email already verified", body["error"])
	})
}

func TestMe(t *testing.T) {
	svc, db := newAuthService(t)
	registerAlice(t, authApp(svc, ""))

	var user models.User
	require.NoError(t, db.Where("username = ?", "alice").First(&user).Error)

	status, body := doJSON(t, authApp(svc, user.ID), http.MethodGet, "/me", nil)
	assert.Equal(t, http.StatusOK, status)
	me := body["user"].(map[string]interface{})
	assert.Equal(t, "alice", me["username"])
	assert.NotContains(t, me, "password_hash")

	status, _ = doJSON(t, authApp(svc, "no-such-user"), http.MethodGet, "/me", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}
