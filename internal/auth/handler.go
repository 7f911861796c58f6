package auth

import (
	"errors"
	"log"
	"strings"
	"time"

	"everlasting-kin/internal/config"
	"everlasting-kin/internal/database"
	"everlasting-kin/internal/metrics"
	"everlasting-kin/internal/models"
	"everlasting-kin/internal/session"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const MinPasswordLength = 6

var (
	ErrPasswordMismatch = errors.New("Passwords do not match")
	ErrPasswordTooShort = errors.New("Password must be at least 6 characters long")
	ErrEmailTaken       = errors.New("email already registered")

	errAdminExists = errors.New("an admin already exists")
)

type SignUpRequest struct {
	Email           string          `json:"email" validate:"required,email,max=255"`
	Password        string          `json:"password" validate:"required,min=6,max=72"`
	ConfirmPassword string          `json:"confirm_password"`
	FirstName       string          `json:"first_name" validate:"max=100"`
	LastName        string          `json:"last_name" validate:"max=100"`
	Role            models.UserRole `json:"role" validate:"required,oneof=public_user mortuary_staff police admin"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type BootstrapAdminRequest struct {
	Email     string `json:"email" validate:"required,email,max=255"`
	Password  string `json:"password" validate:"required,min=6,max=72"`
	FirstName string `json:"first_name" validate:"max=100"`
	LastName  string `json:"last_name" validate:"max=100"`
}

// CheckPasswords runs the sign-up form checks in the order the form shows
// them.
func CheckPasswords(password, confirm string) error {
	if password != confirm {
		return ErrPasswordMismatch
	}
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}

// POST /api/auth/signup
func SignUpHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body SignUpRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		body.Email = strings.TrimSpace(strings.ToLower(body.Email))
		body.FirstName = strings.TrimSpace(body.FirstName)
		body.LastName = strings.TrimSpace(body.LastName)
		if body.Role == "" {
			body.Role = models.RolePublicUser
		}

		// confirm_password is optional for API callers, enforced when sent.
		if body.ConfirmPassword != "" {
			if err := CheckPasswords(body.Password, body.ConfirmPassword); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
		}
		if err := Validate(&body); err != nil {
			return err
		}

		user, err := RegisterUser(body.Email, body.Password, body.FirstName, body.LastName, body.Role)
		if errors.Is(err, ErrEmailTaken) {
			return fiber.NewError(fiber.StatusConflict, "Email is already registered")
		}
		if err != nil {
			log.Printf("[auth] signup failed: %v", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to create account")
		}
		metrics.SignUpsTotal.WithLabelValues(string(user.Role)).Inc()

		token, err := GenerateToken(cfg.JWTSecret, cfg.TokenTTL, user)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to issue token")
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"token": token,
			"user":  user,
		})
	}
}

// RegisterUser creates the account and, for privileged roles, the pending
// admin request in one transaction.
func RegisterUser(email, password, firstName, lastName string, role models.UserRole) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Email:          email,
		PasswordHash:   string(hash),
		FirstName:      firstName,
		LastName:       lastName,
		Role:           role,
		ApprovalStatus: models.ApprovalApproved,
	}
	if role.Privileged() {
		user.ApprovalStatus = models.ApprovalPending
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrEmailTaken
		}

		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		if role.Privileged() {
			return tx.Create(&models.AdminRequest{UserID: user.ID}).Error
		}
		return nil
	})
	if err != nil && !errors.Is(err, ErrEmailTaken) && emailExists(database.DB, email) {
		// Lost a race with a concurrent sign-up; the unique index caught it.
		err = ErrEmailTaken
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// emailExists reports whether a committed user has email. Lookup errors
// count as no.
func emailExists(db *gorm.DB, email string) bool {
	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false
	}
	return count > 0
}

// POST /api/auth/login
func LoginHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		body.Email = strings.TrimSpace(strings.ToLower(body.Email))

		var user models.User
		if err := database.DB.Where("email = ?", body.Email).First(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid email or password")
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid email or password")
		}

		token, err := GenerateToken(cfg.JWTSecret, cfg.TokenTTL, &user)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to issue token")
		}

		return c.JSON(fiber.Map{
			"token": token,
			"user":  user,
		})
	}
}

// POST /api/auth/logout
func LogoutHandler(sessions session.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenID, _ := c.Locals(CtxTokenIDKey).(string)
		exp, _ := c.Locals(CtxTokenExpKey).(time.Time)

		if err := sessions.Revoke(c.UserContext(), tokenID, time.Until(exp)); err != nil {
			log.Printf("[auth] logout failed: %v", err)
			return fiber.NewError(fiber.StatusServiceUnavailable, "Failed to sign out")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// GET /api/auth/me
func MeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := CurrentUser(c)
		if err != nil {
			return err
		}
		return c.JSON(user)
	}
}

// POST /api/auth/bootstrap-admin creates the first admin. Later admins sign
// up and wait for approval like every other privileged role.
func BootstrapAdminHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body BootstrapAdminRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		body.Email = strings.TrimSpace(strings.ToLower(body.Email))
		if err := Validate(&body); err != nil {
			return err
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to hash password")
		}

		now := time.Now()
		user := models.User{
			Email:          body.Email,
			PasswordHash:   string(hash),
			FirstName:      strings.TrimSpace(body.FirstName),
			LastName:       strings.TrimSpace(body.LastName),
			Role:           models.RoleAdmin,
			ApprovalStatus: models.ApprovalApproved,
			ApprovedAt:     &now,
		}

		err = database.DB.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
			var admins int64
			if err := tx.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&admins).Error; err != nil {
				return err
			}
			if admins > 0 {
				return errAdminExists
			}

			// Concurrent callers block on this row; only one commits it.
			if err := tx.Create(&models.SetupMarker{Name: models.MarkerFirstAdmin}).Error; err != nil {
				return err
			}

			var taken int64
			if err := tx.Model(&models.User{}).Where("email = ?", body.Email).Count(&taken).Error; err != nil {
				return err
			}
			if taken > 0 {
				return ErrEmailTaken
			}
			return tx.Create(&user).Error
		})
		switch {
		case err == nil:
		case errors.Is(err, errAdminExists), bootstrapDone(database.DB):
			return fiber.NewError(fiber.StatusForbidden, "An admin already exists")
		case errors.Is(err, ErrEmailTaken):
			return fiber.NewError(fiber.StatusConflict, "Email is already registered")
		default:
			log.Printf("[auth] bootstrap admin failed: %v", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to create admin")
		}

		token, err := GenerateToken(cfg.JWTSecret, cfg.TokenTTL, &user)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to issue token")
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"token": token,
			"user":  user,
		})
	}
}

// bootstrapDone reports whether the first-admin marker is committed.
func bootstrapDone(db *gorm.DB) bool {
	var n int64
	err := db.Model(&models.SetupMarker{}).Where("name = ?", models.MarkerFirstAdmin).Count(&n).Error
	return err == nil && n > 0
}
