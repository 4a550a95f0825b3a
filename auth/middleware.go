package auth

import (
	"github.com/Abraxas-365/craftable/logx"
	"github.com/erpconnect/wagateway/pkg/config"
	"github.com/gofiber/fiber/v2"
)

// KeyMiddleware valida las claves de acceso configuradas por entorno.
// Hay dos niveles: la clave general cubre todo el servidor y la clave
// de servicio protege las rutas /api.
type KeyMiddleware struct {
	generalKey string
	serviceKey string
}

// NewKeyMiddleware crea el middleware a partir de la configuración
func NewKeyMiddleware(cfg config.AuthConfig) *KeyMiddleware {
	return &KeyMiddleware{
		generalKey: cfg.GeneralKey,
		serviceKey: cfg.ServiceKey,
	}
}

// RequireGeneralKey exige la clave general en el query param o header "key".
// Si no hay clave configurada deja pasar todo y avisa por log.
func (m *KeyMiddleware) RequireGeneralKey() fiber.Handler {
	warned := false
	return func(c *fiber.Ctx) error {
		if m.generalKey == "" {
			if !warned {
				logx.Warn("[auth] KEY is not set, requests are not protected")
				warned = true
			}
			return c.Next()
		}

		key := c.Query("key")
		if key == "" {
			key = c.Get("key")
		}
		if key != m.generalKey {
			return ErrInvalidGeneralKey()
		}
		return c.Next()
	}
}

// RequireServiceKey exige la clave de servicio en el header X-API-Key.
// Sin clave configurada el servicio no acepta llamadas a la API.
func (m *KeyMiddleware) RequireServiceKey() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if m.serviceKey == "" {
			logx.Error("[auth] SERVICE_API_KEY is not set, rejecting API request")
			return ErrServiceKeyUnavailable()
		}

		key := c.Get("X-API-Key")
		if key == "" {
			return ErrMissingAPIKey()
		}
		if key != m.serviceKey {
			return ErrInvalidAPIKey()
		}
		return c.Next()
	}
}
