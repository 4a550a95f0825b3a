package sessioninfra

import (
	"context"
	"database/sql"

	"github.com/Abraxas-365/craftable/errx"
	"github.com/erpconnect/wagateway/pkg/kernel"
	"github.com/jmoiron/sqlx"
)

// ==========================================
// Session Registry (Postgres)
// ==========================================

// PostgresSessionRegistry asocia claves de sesión del gateway con el JID
// del dispositivo WhatsApp. El device store de la librería solo conoce
// JIDs, así que esta tabla es la que permite restaurar sesiones por
// nombre después de un reinicio.
type PostgresSessionRegistry struct {
	db *sqlx.DB
}

func NewPostgresSessionRegistry(db *sqlx.DB) *PostgresSessionRegistry {
	return &PostgresSessionRegistry{db: db}
}

const sessionRegistrySchema = `
CREATE TABLE IF NOT EXISTS wagateway_sessions (
	session_key TEXT PRIMARY KEY,
	jid         TEXT NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// EnsureSchema crea la tabla del registro si no existe
func (r *PostgresSessionRegistry) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, sessionRegistrySchema); err != nil {
		return errx.Wrap(err, "failed to ensure session registry schema", errx.TypeInternal)
	}
	return nil
}

// Bind registra o actualiza el JID asociado a una clave de sesión
func (r *PostgresSessionRegistry) Bind(ctx context.Context, key kernel.SessionKey, jid string) error {
	query := `
		INSERT INTO wagateway_sessions (session_key, jid, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (session_key)
		DO UPDATE SET jid = EXCLUDED.jid, updated_at = now()`
	if _, err := r.db.ExecContext(ctx, query, key.String(), jid); err != nil {
		return errx.Wrap(err, "failed to bind session to device", errx.TypeInternal)
	}
	return nil
}

// Lookup devuelve el JID asociado a la clave, o "" si no hay registro
func (r *PostgresSessionRegistry) Lookup(ctx context.Context, key kernel.SessionKey) (string, error) {
	var jid string
	err := r.db.GetContext(ctx, &jid,
		`SELECT jid FROM wagateway_sessions WHERE session_key = $1`, key.String())
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", errx.Wrap(err, "failed to look up session device", errx.TypeInternal)
	}
	return jid, nil
}

// Unbind elimina el registro de la clave
func (r *PostgresSessionRegistry) Unbind(ctx context.Context, key kernel.SessionKey) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM wagateway_sessions WHERE session_key = $1`, key.String())
	if err != nil {
		return errx.Wrap(err, "failed to unbind session device", errx.TypeInternal)
	}
	return nil
}

// All devuelve todas las asociaciones clave -> JID registradas
func (r *PostgresSessionRegistry) All(ctx context.Context) (map[kernel.SessionKey]string, error) {
	rows := []struct {
		SessionKey string `db:"session_key"`
		JID        string `db:"jid"`
	}{}
	err := r.db.SelectContext(ctx, &rows, `SELECT session_key, jid FROM wagateway_sessions`)
	if err != nil {
		return nil, errx.Wrap(err, "failed to list registered sessions", errx.TypeInternal)
	}
	out := make(map[kernel.SessionKey]string, len(rows))
	for _, row := range rows {
		out[kernel.SessionKey(row.SessionKey)] = row.JID
	}
	return out, nil
}
