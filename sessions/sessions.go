package sessions

import (
	"github.com/erpconnect/wagateway/pkg/kernel"
)

// ============================================================================
// Session Status
// ============================================================================

// Status es el estado local de conexión de una sesión
type Status string

const (
	StatusNotInitialized     Status = "NOT_INITIALIZED"
	StatusConnecting         Status = "CONNECTING"
	StatusQRReady            Status = "QR_READY"
	StatusConnected          Status = "CONNECTED"
	StatusDisconnected       Status = "DISCONNECTED"
	StatusDisconnectedManual Status = "DISCONNECTED_MANUAL"
	StatusError              Status = "ERROR"
	StatusErrorQRGeneration  Status = "ERROR_QR_GENERATION"
	StatusErrorDisconnect    Status = "ERROR_DISCONNECT"
	StatusErrorSessionDir    Status = "ERROR_SESSION_DIR"
	StatusErrorInit          Status = "ERROR_INIT"
	StatusErrorEventHandler  Status = "ERROR_EVENT_HANDLER"
)

// Ptr retorna un puntero al status, para usar en Patch
func (s Status) Ptr() *Status { return &s }

// External retorna el status visible hacia afuera. Una desconexión manual y
// una detectada por reconciliación tienen la misma semántica externa.
func (s Status) External() Status {
	if s == StatusDisconnectedManual {
		return StatusDisconnected
	}
	return s
}

// ============================================================================
// Tracked State
// ============================================================================

// TrackedState es la creencia local sobre una sesión; puede quedar
// brevemente desfasada respecto a la librería externa hasta la siguiente
// reconciliación.
type TrackedState struct {
	Status    Status
	QRImage   string // data URL; solo presente en QR_READY
	LastError string
}

// Patch es una actualización parcial de TrackedState. Los campos nil se
// dejan intactos; un puntero a cadena vacía limpia el campo.
type Patch struct {
	Status    *Status
	QRImage   *string
	LastError *string
}

// InitiateResult es el resultado de iniciar (o reutilizar) una sesión
type InitiateResult struct {
	Key     kernel.SessionKey
	Status  Status
	QRImage string
	Message string
}

// ============================================================================
// Message Dispatch
// ============================================================================

// MessageType tipo de mensaje saliente
type MessageType string

const (
	MessageTypeText     MessageType = "Text"
	MessageTypeImage    MessageType = "Image"
	MessageTypeDocument MessageType = "Document"
	MessageTypeAudio    MessageType = "Audio"
	MessageTypeVideo    MessageType = "Video"
)

// IsValid indica si el tipo está declarado en la API
func (t MessageType) IsValid() bool {
	switch t {
	case MessageTypeText, MessageTypeImage, MessageTypeDocument, MessageTypeAudio, MessageTypeVideo:
		return true
	}
	return false
}

// Media carga binaria adjunta a un mensaje Image/Document
type Media struct {
	Data     []byte
	Filename string
	MimeType string
}

// SendRequest mensaje saliente ya validado estructuralmente
type SendRequest struct {
	Recipient string
	Type      MessageType
	Text      string
	Media     *Media
}

// DefaultUserDomain sufijo de dominio de usuario de WhatsApp que se añade a
// destinatarios sin separador de dominio
const DefaultUserDomain = "s.whatsapp.net"
