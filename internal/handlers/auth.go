package handlers

import (
	"errors"
	"strings"
	"unicode"

	"github.com/Destcable/API-cloud-storage/internal/middleware"
	"github.com/Destcable/API-cloud-storage/internal/models"
	"github.com/Destcable/API-cloud-storage/pkg/logger"
	"github.com/Destcable/API-cloud-storage/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type AuthHandler struct {
	DB *gorm.DB
}

func NewAuthHandler(db *gorm.DB) *AuthHandler {
	return &AuthHandler{DB: db}
}

type registerRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	fields := map[string][]string{}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" {
		fields["email"] = append(fields["email"], "email is required")
	} else if !isValidEmail(req.Email) {
		fields["email"] = append(fields["email"], "email is malformed")
	}

	if msg := passwordPolicyViolation(req.Password); msg != "" {
		fields["password"] = append(fields["password"], msg)
	}

	if strings.TrimSpace(req.FirstName) == "" {
		fields["first_name"] = append(fields["first_name"], "first_name is required")
	}
	if strings.TrimSpace(req.LastName) == "" {
		fields["last_name"] = append(fields["last_name"], "last_name is required")
	}

	if len(fields) > 0 {
		return utils.ValidationFailed(c, fields)
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed hashing password")
	}

	user := models.User{
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
	}
	// Uniqueness is enforced by the index, not a prior lookup, so two
	// concurrent registrations of the same email cannot both succeed.
	if err := h.DB.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return utils.ValidationFailed(c, map[string][]string{
				"email": {"email is already taken"},
			})
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed creating user")
	}

	token, err := utils.GenerateToken(&user)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed generating token")
	}

	logger.InfoWithUser(user.ID.String(), "user_registered", map[string]interface{}{
		"email": user.Email,
	})

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Success",
		"token":   token,
	})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	fields := map[string][]string{}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" {
		fields["email"] = append(fields["email"], "email is required")
	} else if !isValidEmail(req.Email) {
		fields["email"] = append(fields["email"], "email is malformed")
	}
	if req.Password == "" {
		fields["password"] = append(fields["password"], "password is required")
	}
	if len(fields) > 0 {
		return utils.ValidationFailed(c, fields)
	}

	// Never reveal whether the email or the password was wrong.
	var user models.User
	if err := h.DB.First(&user, "email = ?", req.Email).Error; err != nil {
		return utils.Error(c, fiber.StatusUnauthorized, "Login failed")
	}
	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		logger.WarnWithUser(user.ID.String(), "login_failed", map[string]interface{}{
			"ip": c.IP(),
		})
		return utils.Error(c, fiber.StatusUnauthorized, "Login failed")
	}

	token, err := utils.GenerateToken(&user)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed generating token")
	}

	logger.InfoWithUser(user.ID.String(), "user_logged_in", map[string]interface{}{
		"ip": c.IP(),
	})

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Success",
		"token":   token,
	})
}

// Logout acknowledges the request. Tokens are stateless JWTs; clients discard
// them and expiry does the rest.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if user := middleware.GetCurrentUser(c); user != nil {
		logger.InfoWithUser(user.ID.String(), "user_logged_out", nil)
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "logged out"})
}

// Original password rule: at least 3 characters with one lowercase letter,
// one uppercase letter and one digit.
func passwordPolicyViolation(password string) string {
	if password == "" {
		return "password is required"
	}
	if len(password) < 3 {
		return "password must be at least 3 characters"
	}

	var hasLower, hasUpper, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLower || !hasUpper || !hasDigit {
		return "password must contain a lowercase letter, an uppercase letter and a digit"
	}
	return ""
}
