// services/auth_service.go
package services

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"rithm-backend/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const verificationTokenTTL = 24 * time.Hour

type AuthService struct {
	DB     *gorm.DB
	Mailer *Mailer

	jwtSecret  []byte
	sessionTTL time.Duration
}

func NewAuthService(db *gorm.DB, mailer *Mailer) *AuthService {
	secret := os.Getenv("JWT_SECRET_KEY")
	if secret == "" {
		log.Fatal("JWT_SECRET_KEY environment variable not set")
	}

	ttlSeconds := 86400
	if raw := os.Getenv("SESSION_TOKEN_TTL"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			ttlSeconds = parsed
		}
	}

	return &AuthService{
		DB:         db,
		Mailer:     mailer,
		jwtSecret:  []byte(secret),
		sessionTTL: time.Duration(ttlSeconds) * time.Second,
	}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates the account, issues a session token and queues the
// verification email. The mail send is fire-and-forget; a mailer outage
// must never block signup.
func (s *AuthService) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "Invalid request body"})
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if req.Username == "" || req.Email == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "Username and email are required"})
	}
	if !strings.Contains(req.Email, "@") {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "Invalid email address"})
	}
	if len(req.Password) < 8 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "Password must be at least 8 characters"})
	}

	var taken int64
	if err := s.DB.Model(&models.User{}).
		Where("username = ? OR email = ?", req.Username, req.Email).
		Count(&taken).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": "registration failed", "details": err.Error()})
	}
	if taken > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "Username or email already taken"})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": "registration failed"})
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
	}
	verification := newVerificationToken(user.ID)

	if err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		return tx.Create(verification).Error
	}); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": err.Error()})
	}

	go s.sendVerification(user, verification.Token)

	token, err := s.issueSessionToken(user.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": "failed to issue session token"})
	}

	return c.JSON(fiber.Map{"success": true, "token": token, "user": user})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login accepts the username or the email address in the username field,
// the way the site's login form does.
func (s *AuthService) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "Invalid request body"})
	}

	login := strings.TrimSpace(req.Username)

	var user models.User
	err := s.DB.Where("username = ? OR email = ?", login, strings.ToLower(login)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "error": "Invalid username or password"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": "login failed", "details": err.Error()})
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "error": "Invalid username or password"})
	}

	token, err := s.issueSessionToken(user.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": "failed to issue session token"})
	}

	return c.JSON(fiber.Map{"success": true, "token": token, "user": user})
}

// Me returns the authenticated user's account record.
func (s *AuthService) Me(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)

	var user models.User
	if err := s.DB.Where("id = ?", userID).First(&user).Error; err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "error": "Not authenticated"})
	}
	return c.JSON(fiber.Map{"success": true, "user": user})
}

type verifyRequest struct {
	Token string `json:"token"`
}

// VerifyEmail consumes a verification token. Used and expired tokens are
// rejected with the same message so the endpoint leaks nothing about
// which tokens ever existed.
func (s *AuthService) VerifyEmail(c *fiber.Ctx) error {
	var req verifyRequest
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.Token) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "Invalid request body"})
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var verification models.EmailVerificationToken
		if err := tx.Where("token = ?", req.Token).First(&verification).Error; err != nil {
			return errors.New("Invalid or expired verification token")
		}
		if verification.UsedAt != nil || time.Now().After(verification.ExpiresAt) {
			return errors.New("Invalid or expired verification token")
		}

		now := time.Now()
		verification.UsedAt = &now
		if err := tx.Save(&verification).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).
			Where("id = ?", verification.UserID).
			Update("email_verified", true).Error
	})
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": err.Error()})
	}

	return c.JSON(fiber.Map{"success": true})
}

// ResendVerification invalidates any outstanding tokens and mails a
// fresh one.
func (s *AuthService) ResendVerification(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)

	var user models.User
	if err := s.DB.Where("id = ?", userID).First(&user).Error; err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "error": "Not authenticated"})
	}
	if user.EmailVerified {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "Email already verified"})
	}

	verification := newVerificationToken(user.ID)
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		if err := tx.Model(&models.EmailVerificationToken{}).
			Where("user_id = ? AND used_at IS NULL", user.ID).
			Update("used_at", now).Error; err != nil {
			return err
		}
		return tx.Create(verification).Error
	})
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": err.Error()})
	}

	go s.sendVerification(&user, verification.Token)

	return c.JSON(fiber.Map{"success": true})
}

func newVerificationToken(userID string) *models.EmailVerificationToken {
	return &models.EmailVerificationToken{
		ID:        uuid.NewString(),
		UserID:    userID,
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().Add(verificationTokenTTL),
	}
}

func (s *AuthService) sendVerification(user *models.User, token string) {
	if err := s.Mailer.SendVerificationEmail(user.Email, user.Username, token); err != nil {
		log.Printf("⚠️  Failed to send verification email to %s: %v", user.Email, err)
	}
}

func (s *AuthService) issueSessionToken(userID string) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.sessionTTL)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}
