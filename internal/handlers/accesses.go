package handlers

import (
	"strings"

	"github.com/Destcable/API-cloud-storage/internal/middleware"
	"github.com/Destcable/API-cloud-storage/internal/services"
	"github.com/Destcable/API-cloud-storage/pkg/logger"
	"github.com/Destcable/API-cloud-storage/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type AccessesHandler struct {
	Ledger *services.AccessLedger
}

func NewAccessesHandler(ledger *services.AccessLedger) *AccessesHandler {
	return &AccessesHandler{Ledger: ledger}
}

type accessRequest struct {
	Email string `json:"email"`
}

func (h *AccessesHandler) parseAccessRequest(c *fiber.Ctx) (string, error) {
	var req accessRequest
	if err := c.BodyParser(&req); err != nil {
		return "", utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	email := strings.TrimSpace(req.Email)
	if email == "" {
		return "", utils.ValidationFailed(c, map[string][]string{
			"email": {"email is required"},
		})
	}
	if !isValidEmail(email) {
		return "", utils.ValidationFailed(c, map[string][]string{
			"email": {"email is malformed"},
		})
	}
	return email, nil
}

func (h *AccessesHandler) Grant(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	email, done := h.parseAccessRequest(c)
	if done != nil {
		return done
	}

	fileKey := c.Params("file_key")
	accesses, err := h.Ledger.Grant(c.Context(), fileKey, currentUser.ID, email)
	if err != nil {
		return respondServiceError(c, err, "failed granting access")
	}

	logger.InfoWithUser(currentUser.ID.String(), "access_granted", map[string]interface{}{
		"file_key":     fileKey,
		"target_email": email,
	})

	return utils.Success(c, fiber.StatusOK, accesses)
}

func (h *AccessesHandler) Revoke(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	email, done := h.parseAccessRequest(c)
	if done != nil {
		return done
	}

	fileKey := c.Params("file_key")
	accesses, err := h.Ledger.Revoke(c.Context(), fileKey, currentUser.ID, email)
	if err != nil {
		return respondServiceError(c, err, "failed revoking access")
	}

	logger.InfoWithUser(currentUser.ID.String(), "access_revoked", map[string]interface{}{
		"file_key":     fileKey,
		"target_email": email,
	})

	return utils.Success(c, fiber.StatusOK, accesses)
}
