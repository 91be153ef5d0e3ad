package handlers

import "github.com/gofiber/fiber/v2"

// envelope writes the uniform {code, status, ...payload} response body. The
// code field mirrors the HTTP status so clients reading only the body see the
// same outcome.
func envelope(c *fiber.Ctx, code int, status string, payload fiber.Map) error {
	body := fiber.Map{
		"code":   code,
		"status": status,
	}
	for k, v := range payload {
		body[k] = v
	}
	return c.Status(code).JSON(body)
}

func fail(c *fiber.Ctx, code int, status string) error {
	return envelope(c, code, status, nil)
}
