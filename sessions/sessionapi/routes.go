package sessionapi

import (
	"github.com/erpconnect/wagateway/pkg/kernel"
	"github.com/gofiber/fiber/v2"
)

// SessionKeyMiddleware valida los parámetros :site/:session y deja la clave
// compuesta en los locals del request para los handlers.
func SessionKeyMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		site := c.Params("site")
		session := c.Params("session")
		if site == "" || session == "" {
			return ErrMissingPathParams()
		}
		c.Locals("session_key", kernel.JoinSessionKey(site, session))
		return c.Next()
	}
}

// RegisterRoutes registra las rutas de sesión sobre el grupo /:site/:session
func RegisterRoutes(router fiber.Router, h *Handler) {
	router.Get("/initiate", h.Initiate)
	router.Get("/status", h.Status)
	router.Post("/disconnect", h.Disconnect)
	router.Post("/send", h.SendMessage)
}
