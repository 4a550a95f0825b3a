package updates

import (
	"time"

	"github.com/erpconnect/wagateway/pkg/kernel"
)

// UpdateStatus es el estado de entrega reportado por WhatsApp
type UpdateStatus string

const (
	StatusDelivered UpdateStatus = "delivered"
	StatusRead      UpdateStatus = "read"
	StatusPlayed    UpdateStatus = "played"
)

// Update es un acuse de entrega asociado a mensajes enviados por una
// sesión. Se acumulan por sesión en una cola acotada.
type Update struct {
	ID         kernel.UpdateID `json:"id"`
	MessageIDs []string        `json:"message_ids"`
	Status     UpdateStatus    `json:"status"`
	Recipient  string          `json:"recipient"`
	Timestamp  time.Time       `json:"timestamp"`
	ReceivedAt time.Time       `json:"received_at"`
}
