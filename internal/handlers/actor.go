package handlers

import (
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// parseActorID extracts the authenticated user's id set by the auth
// middleware.
func parseActorID(c *fiber.Ctx) (int64, error) {
	value, ok := c.Locals("user_id").(string)
	if !ok {
		return 0, fmt.Errorf("missing user id")
	}
	actorID, err := strconv.ParseInt(value, 10, 64)
	if err != nil || actorID <= 0 {
		return 0, fmt.Errorf("invalid user id")
	}
	return actorID, nil
}

func actorRole(c *fiber.Ctx) string {
	role, _ := c.Locals("role").(string)
	return role
}
