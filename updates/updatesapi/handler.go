package updatesapi

import (
	"github.com/erpconnect/wagateway/pkg/kernel"
	"github.com/erpconnect/wagateway/updates"
	"github.com/erpconnect/wagateway/updates/updatessrv"
	"github.com/gofiber/fiber/v2"
)

// UpdatesResponse respuesta de la consulta de acuses
type UpdatesResponse struct {
	SessionID string           `json:"sessionId"`
	Count     int              `json:"count"`
	Updates   []updates.Update `json:"updates"`
}

// Handler expone la consulta de acuses de entrega
type Handler struct {
	svc *updatessrv.Service
}

func NewHandler(svc *updatessrv.Service) *Handler {
	return &Handler{svc: svc}
}

// List maneja GET /:site/:session/updates
func (h *Handler) List(c *fiber.Ctx) error {
	key, _ := c.Locals("session_key").(kernel.SessionKey)

	items, err := h.svc.List(c.Context(), key)
	if err != nil {
		return err
	}
	if items == nil {
		items = []updates.Update{}
	}
	return c.JSON(UpdatesResponse{
		SessionID: key.String(),
		Count:     len(items),
		Updates:   items,
	})
}

// RegisterRoutes registra las rutas de acuses sobre el grupo /:site/:session
func RegisterRoutes(router fiber.Router, h *Handler) {
	router.Get("/updates", h.List)
}
