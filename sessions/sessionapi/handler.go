package sessionapi

import (
	"encoding/base64"
	"fmt"

	"github.com/Abraxas-365/craftable/logx"
	"github.com/erpconnect/wagateway/pkg/kernel"
	"github.com/erpconnect/wagateway/sessions"
	"github.com/erpconnect/wagateway/sessions/sessionsrv"
	"github.com/gofiber/fiber/v2"
)

// Handler expone las operaciones de sesión por HTTP
type Handler struct {
	svc *sessionsrv.Service
}

// NewHandler crea el handler de sesiones
func NewHandler(svc *sessionsrv.Service) *Handler {
	return &Handler{svc: svc}
}

// sessionKey recupera la clave compuesta inyectada por el middleware de rutas
func sessionKey(c *fiber.Ctx) kernel.SessionKey {
	key, _ := c.Locals("session_key").(kernel.SessionKey)
	return key
}

// Initiate maneja GET /:site/:session/initiate?forceNewQR=
func (h *Handler) Initiate(c *fiber.Ctx) error {
	key := sessionKey(c)
	forceNew := c.Query("forceNewQR") == "true"

	logx.Info("[api] initiating session '%s', force new: %v", key, forceNew)
	result, err := h.svc.Initiate(c.Context(), key, forceNew)
	if err != nil {
		return err
	}

	var qr *string
	if result.QRImage != "" {
		qr = &result.QRImage
	}
	return c.JSON(InitiateResponse{
		SessionID: key.String(),
		Status:    string(result.Status.External()),
		QRCode:    qr,
		Message:   result.Message,
	})
}

// Status maneja GET /:site/:session/status
func (h *Handler) Status(c *fiber.Ctx) error {
	key := sessionKey(c)
	st := h.svc.Reconcile(key)

	var qr *string
	if st.Status == sessions.StatusQRReady && st.QRImage != "" {
		qr = &st.QRImage
	}
	var lastErr *string
	if st.LastError != "" {
		lastErr = &st.LastError
	}
	status := st.Status.External()
	return c.JSON(StatusResponse{
		SessionID: key.String(),
		Status:    string(status),
		QRCode:    qr,
		LastError: lastErr,
		Message:   fmt.Sprintf("Current status for %s: %s", key, status),
	})
}

// Disconnect maneja POST /:site/:session/disconnect
func (h *Handler) Disconnect(c *fiber.Ctx) error {
	key := sessionKey(c)

	logx.Info("[api] disconnecting session '%s'", key)
	if err := h.svc.Disconnect(c.Context(), key); err != nil {
		return err
	}
	return c.JSON(DisconnectResponse{
		SessionID: key.String(),
		Status:    string(sessions.StatusDisconnected),
		Message:   "Session disconnected successfully.",
	})
}

// SendMessage maneja POST /:site/:session/send
func (h *Handler) SendMessage(c *fiber.Ctx) error {
	key := sessionKey(c)

	var payload SendMessageRequest
	if err := c.BodyParser(&payload); err != nil {
		return ErrInvalidPayload().WithCause(err)
	}

	req, err := h.buildSendRequest(payload)
	if err != nil {
		return err
	}

	id, err := h.svc.Send(c.Context(), key, req)
	if err != nil {
		return err
	}
	return c.JSON(SendResponse{
		SessionID: key.String(),
		Success:   true,
		MessageID: id.String(),
	})
}

// buildSendRequest valida la estructura del payload y lo traduce al dominio.
// Las reglas por tipo (texto requerido, media requerida) las aplica el
// servicio antes de tocar la librería.
func (h *Handler) buildSendRequest(payload SendMessageRequest) (sessions.SendRequest, error) {
	if payload.Recipient == "" {
		return sessions.SendRequest{}, ErrInvalidRecipient()
	}
	msgType := sessions.MessageType(payload.MessageType)
	if !msgType.IsValid() {
		return sessions.SendRequest{}, ErrInvalidType().WithDetail("message_type", payload.MessageType)
	}

	text := ""
	if payload.Message != nil {
		text = *payload.Message
	}
	if text == "" && payload.Options != nil && payload.Options.Caption != nil {
		text = *payload.Options.Caption
	}

	var media *sessions.Media
	if payload.Media != nil {
		data, err := base64.StdEncoding.DecodeString(payload.Media.Base64)
		if err != nil {
			return sessions.SendRequest{}, ErrInvalidMedia().WithCause(err)
		}
		media = &sessions.Media{
			Data:     data,
			Filename: payload.Media.Filename,
			MimeType: payload.Media.Mimetype,
		}
	}

	return sessions.SendRequest{
		Recipient: payload.Recipient,
		Type:      msgType,
		Text:      text,
		Media:     media,
	}, nil
}
