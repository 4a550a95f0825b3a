package sessionapi

// ============================================================================
// Response DTOs
// ============================================================================

// InitiateResponse respuesta de GET /:site/:session/initiate
type InitiateResponse struct {
	SessionID string  `json:"sessionId"`
	Status    string  `json:"status"`
	QRCode    *string `json:"qr_code"`
	Message   string  `json:"message"`
}

// StatusResponse respuesta de GET /:site/:session/status
type StatusResponse struct {
	SessionID string  `json:"sessionId"`
	Status    string  `json:"status"`
	QRCode    *string `json:"qr_code"`
	LastError *string `json:"last_error"`
	Message   string  `json:"message"`
}

// DisconnectResponse respuesta de POST /:site/:session/disconnect
type DisconnectResponse struct {
	SessionID string `json:"sessionId"`
	Status    string `json:"status"`
	Message   string `json:"message"`
}

// SendResponse respuesta de POST /:site/:session/send
type SendResponse struct {
	SessionID string `json:"sessionId"`
	Success   bool   `json:"success"`
	MessageID string `json:"message_id"`
}

// ============================================================================
// Request DTOs
// ============================================================================

// SendMessageRequest cuerpo de POST /:site/:session/send
type SendMessageRequest struct {
	Recipient   string        `json:"recipient"`
	MessageType string        `json:"message_type"`
	Message     *string       `json:"message,omitempty"`
	Media       *MediaPayload `json:"media,omitempty"`
	Options     *SendOptions  `json:"options,omitempty"`
}

// MediaPayload carga binaria codificada para el transporte
type MediaPayload struct {
	Base64   string `json:"base64"`
	Filename string `json:"filename"`
	Mimetype string `json:"mimetype"`
}

// SendOptions opciones de envío
type SendOptions struct {
	Caption *string `json:"caption,omitempty"`
}
