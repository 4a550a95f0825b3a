package sessions

import (
	"context"

	"github.com/erpconnect/wagateway/pkg/kernel"
)

// ============================================================================
// External Library Interface
// ============================================================================

// SessionCallbacks son los callbacks por llamada de StartSession. La
// librería puede invocarlos más de una vez (p. ej. rotación de QR); los
// consumidores deben tolerar invocaciones repetidas.
type SessionCallbacks struct {
	OnQRUpdated    func(qr string)
	OnConnected    func()
	OnDisconnected func()
}

// Library es el contrato con la librería externa de gestión de sesiones.
// Ella es dueña del protocolo WhatsApp, las credenciales multi-dispositivo y
// el transporte; este sistema solo sigue una vista local de su estado.
type Library interface {
	// StartSession inicia (o reutiliza) la sesión y entrega los eventos de
	// esta llamada a través de cb. Retorna error solo si el arranque en sí
	// falla; los desenlaces llegan por los callbacks.
	StartSession(ctx context.Context, key kernel.SessionKey, cb SessionCallbacks) error

	// DeleteSession elimina la sesión y sus credenciales de la librería
	DeleteSession(ctx context.Context, key kernel.SessionKey) error

	// HasSession indica si la librería tiene algún objeto de sesión para key
	HasSession(key kernel.SessionKey) bool

	// IsAuthenticated indica si la librería reporta una sesión con
	// credenciales autenticadas para key
	IsAuthenticated(key kernel.SessionKey) bool

	// LoadSessions restaura desde almacenamiento las sesiones conocidas
	LoadSessions(ctx context.Context) error

	// Send primitives. El destinatario ya viene normalizado con dominio.
	SendText(ctx context.Context, key kernel.SessionKey, to, text string) (kernel.MessageID, error)
	SendImage(ctx context.Context, key kernel.SessionKey, to, caption string, data []byte, mimeType string) (kernel.MessageID, error)
	SendDocument(ctx context.Context, key kernel.SessionKey, to, caption string, data []byte, filename, mimeType string) (kernel.MessageID, error)

	// Global event stream. Los listeners se registran una sola vez por
	// proceso y reciben eventos de cualquier sesión, incluidos los que no
	// corresponden a ninguna llamada StartSession pendiente.
	OnConnecting(fn func(key kernel.SessionKey))
	OnConnected(fn func(key kernel.SessionKey))
	OnDisconnected(fn func(key kernel.SessionKey))
	OnQRUpdated(fn func(key kernel.SessionKey, qr string))
}

// ============================================================================
// QR Rendering
// ============================================================================

// QRRenderer convierte la carga cruda de un QR en datos de imagen
// mostrables (data URL)
type QRRenderer interface {
	Render(raw string) (string, error)
}

// QRRendererFunc adapta una función a QRRenderer
type QRRendererFunc func(raw string) (string, error)

func (f QRRendererFunc) Render(raw string) (string, error) { return f(raw) }
