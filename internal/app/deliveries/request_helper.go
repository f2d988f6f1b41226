package deliveries

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/safatanc/loyalty-core/internal/app/errors"
	"github.com/safatanc/loyalty-core/internal/app/models"
)

// parsePagination reads page, limit and order from the query string.
// Malformed values fall back to the defaults.
func parsePagination(c *fiber.Ctx) *models.PaginationRequest {
	pagination := &models.PaginationRequest{
		Page:  c.QueryInt("page", 1),
		Limit: c.QueryInt("limit", 10),
		Order: c.Query("order", "desc"),
	}
	if pagination.Limit > 100 {
		pagination.Limit = 100
	}
	pagination.Normalize()
	return pagination
}

func parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return errors.NewBadRequestError("Invalid request body")
	}
	return nil
}

func paramUUID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, errors.NewBadRequestError("Invalid " + name + " format")
	}
	return id, nil
}
