package updates

import (
	"context"
	"time"

	"github.com/erpconnect/wagateway/pkg/kernel"
)

// Repository persiste los acuses de entrega por sesión. Append mantiene
// la cola acotada al máximo configurado descartando los más viejos.
type Repository interface {
	Append(ctx context.Context, key kernel.SessionKey, update Update, max int) error
	List(ctx context.Context, key kernel.SessionKey) ([]Update, error)
	Prune(ctx context.Context, maxAge time.Duration) (int, error)
}
