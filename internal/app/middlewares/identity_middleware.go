package middlewares

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/safatanc/loyalty-core/internal/app/errors"
	"github.com/safatanc/loyalty-core/internal/app/pkg"
)

// Identity headers are set by the gateway after it authenticated the caller.
const (
	HeaderBusinessID = "X-Business-ID"
	HeaderClientID   = "X-Client-ID"
	HeaderStaffID    = "X-Staff-ID"
)

const (
	localBusinessID = "business_id"
	localClientID   = "client_id"
	localStaffID    = "staff_id"
)

type IdentityMiddleware struct{}

func NewIdentityMiddleware() *IdentityMiddleware {
	return &IdentityMiddleware{}
}

func (m *IdentityMiddleware) RequireBusiness(c *fiber.Ctx) error {
	return m.require(c, HeaderBusinessID, localBusinessID)
}

func (m *IdentityMiddleware) RequireClient(c *fiber.Ctx) error {
	return m.require(c, HeaderClientID, localClientID)
}

func (m *IdentityMiddleware) RequireStaff(c *fiber.Ctx) error {
	return m.require(c, HeaderStaffID, localStaffID)
}

func (m *IdentityMiddleware) require(c *fiber.Ctx, header, local string) error {
	raw := c.Get(header)
	if raw == "" {
		return pkg.ErrorResponse(c, errors.NewUnauthorizedError("Missing "+header+" header"))
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return pkg.ErrorResponse(c, errors.NewUnauthorizedError("Malformed "+header+" header"))
	}

	c.Locals(local, id)
	return c.Next()
}

// BusinessID returns the business identity set by RequireBusiness.
func BusinessID(c *fiber.Ctx) uuid.UUID {
	return localID(c, localBusinessID)
}

func ClientID(c *fiber.Ctx) uuid.UUID {
	return localID(c, localClientID)
}

func StaffID(c *fiber.Ctx) uuid.UUID {
	return localID(c, localStaffID)
}

func localID(c *fiber.Ctx, key string) uuid.UUID {
	id, _ := c.Locals(key).(uuid.UUID)
	return id
}
