package handlers

import (
	"errors"
	"regexp"

	"github.com/Destcable/API-cloud-storage/internal/services"
	"github.com/Destcable/API-cloud-storage/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

func isValidEmail(value string) bool {
	return emailPattern.MatchString(value)
}

// respondServiceError translates core errors into status codes. Handlers never
// inspect error text to decide behavior.
func respondServiceError(c *fiber.Ctx, err error, fallback string) error {
	var validationErr *services.ValidationError
	if errors.As(err, &validationErr) {
		return utils.ValidationFailed(c, map[string][]string{
			validationErr.Field: {validationErr.Message},
		})
	}

	var storageErr *services.StorageError
	if errors.As(err, &storageErr) {
		return utils.Error(c, fiber.StatusBadGateway, "storage backend failure")
	}

	switch {
	case errors.Is(err, services.ErrSelfRevocation):
		return utils.Error(c, fiber.StatusForbidden, "cannot revoke your own access")
	case errors.Is(err, services.ErrForbidden):
		return utils.Error(c, fiber.StatusForbidden, "forbidden for you")
	case errors.Is(err, services.ErrNotFound):
		return utils.Error(c, fiber.StatusNotFound, "not found")
	default:
		return utils.Error(c, fiber.StatusInternalServerError, fallback)
	}
}
