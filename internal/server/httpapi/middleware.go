package httpapi

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/weekplanner/internal/common"
	"github.com/dmitrijs2005/weekplanner/internal/server/auth"
	"github.com/gofiber/fiber/v2"
)

const identityKey = "identity"

// requireAuth resolves the bearer token and stores the identity in the
// request locals.
func requireAuth(accounts Accounts) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(common.AuthorizationHeaderName)
		token, ok := strings.CutPrefix(header, common.BearerPrefix)
		if !ok || strings.TrimSpace(token) == "" {
			return fmt.Errorf("%w: missing bearer token", common.ErrorUnauthorized)
		}

		id, err := accounts.Authenticate(c.UserContext(), strings.TrimSpace(token))
		if err != nil {
			return err
		}
		c.Locals(identityKey, id)
		return c.Next()
	}
}

func identity(c *fiber.Ctx) auth.Identity {
	id, _ := c.Locals(identityKey).(auth.Identity)
	return id
}
