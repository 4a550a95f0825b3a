package main

import (
	"context"
	"log"
	"time"

	"github.com/erpconnect/wagateway/auth"
	"github.com/erpconnect/wagateway/pkg/config"
	"github.com/erpconnect/wagateway/pkg/kernel"
	"github.com/erpconnect/wagateway/sessions"
	"github.com/erpconnect/wagateway/sessions/sessionapi"
	"github.com/erpconnect/wagateway/sessions/sessioninfra"
	"github.com/erpconnect/wagateway/sessions/sessionsrv"
	"github.com/erpconnect/wagateway/updates"
	"github.com/erpconnect/wagateway/updates/updatesapi"
	"github.com/erpconnect/wagateway/updates/updatesinfra"
	"github.com/erpconnect/wagateway/updates/updatessrv"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
)

// Container contains all application dependencies
type Container struct {
	// =================================================================
	// CONFIGURATION & INFRASTRUCTURE
	// =================================================================
	Config      *config.Config
	DB          *sqlx.DB
	RedisClient *redis.Client

	// =================================================================
	// AUTH
	// =================================================================
	KeyMiddleware *auth.KeyMiddleware

	// =================================================================
	// SESSIONS
	// =================================================================
	SessionRegistry *sessioninfra.PostgresSessionRegistry
	Library         *sessioninfra.Library
	QRRenderer      sessions.QRRenderer
	SessionStore    *sessions.Store
	SessionService  *sessionsrv.Service
	EventBridge     *sessionsrv.Bridge
	SessionHandler  *sessionapi.Handler

	// =================================================================
	// MESSAGE UPDATES
	// =================================================================
	UpdateRepo     updates.Repository
	UpdateService  *updatessrv.Service
	UpdatesHandler *updatesapi.Handler
}

// NewContainer creates a new dependency container
func NewContainer(cfg *config.Config, db *sqlx.DB, redisClient *redis.Client) (*Container, error) {
	c := &Container{
		Config:      cfg,
		DB:          db,
		RedisClient: redisClient,
	}

	log.Println("📦 Initializing dependency container...")

	c.initAuthComponents()
	if err := c.initSessionComponents(); err != nil {
		return nil, err
	}
	c.initUpdateComponents()

	log.Println("✅ Dependency container initialized successfully")

	return c, nil
}

// =================================================================
// AUTH INITIALIZATION
// =================================================================

func (c *Container) initAuthComponents() {
	log.Println("  🔐 Initializing auth components...")
	c.KeyMiddleware = auth.NewKeyMiddleware(c.Config.Auth)
}

// =================================================================
// SESSIONS INITIALIZATION
// =================================================================

func (c *Container) initSessionComponents() error {
	log.Println("  📱 Initializing session components...")

	c.SessionRegistry = sessioninfra.NewPostgresSessionRegistry(c.DB)

	lib, err := sessioninfra.NewLibrary(
		context.Background(),
		c.Config.Database.GetDSN(),
		c.SessionRegistry,
		c.Config.WhatsApp.LogLevel,
	)
	if err != nil {
		return err
	}
	c.Library = lib
	log.Println("    ✅ WhatsApp library initialized")

	c.QRRenderer = sessioninfra.NewQRRenderer()
	c.SessionStore = sessions.NewStore(c.Library)
	c.SessionService = sessionsrv.NewService(
		c.SessionStore,
		c.Library,
		c.QRRenderer,
		c.Config.WhatsApp.InitiateTimeout,
	)
	c.EventBridge = sessionsrv.NewBridge(c.SessionStore, c.QRRenderer)
	c.SessionHandler = sessionapi.NewHandler(c.SessionService)

	log.Println("  ✅ Session components initialized")
	return nil
}

// =================================================================
// MESSAGE UPDATES INITIALIZATION
// =================================================================

func (c *Container) initUpdateComponents() {
	log.Println("  📬 Initializing update components...")

	repo := updatesinfra.NewRedisUpdateRepository(c.RedisClient)
	c.UpdateRepo = repo
	c.UpdateService = updatessrv.NewService(repo, updatessrv.Options{
		MaxPerSession:  c.Config.Updates.MaxPerSession,
		MaxAge:         c.Config.Updates.MaxAge,
		PruneSchedule:  c.Config.Updates.PruneSchedule,
		WebhookBaseURL: c.Config.Updates.WebhookBaseURL,
	})
	c.UpdatesHandler = updatesapi.NewHandler(c.UpdateService)

	log.Println("  ✅ Update components initialized")
}

// =================================================================
// WHATSAPP STARTUP
// =================================================================

// StartWhatsApp conecta el puente de eventos, restaura las sesiones
// registradas y arranca la retención de acuses
func (c *Container) StartWhatsApp(ctx context.Context) {
	// el puente primero, para no perder eventos de la restauración
	c.EventBridge.Register(c.Library)

	// los acuses de entrega alimentan el registro de updates
	c.Library.OnMessageUpdate(c.handleMessageUpdate)

	go func() {
		if err := c.Library.LoadSessions(ctx); err != nil {
			log.Printf("⚠️  Failed to restore sessions: %v", err)
		}
	}()

	go c.UpdateService.StartRetention(ctx)
}

// handleMessageUpdate traduce los acuses de la librería al registro de updates
func (c *Container) handleMessageUpdate(key kernel.SessionKey, mu sessioninfra.MessageUpdate) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := c.UpdateService.Record(ctx, key, updates.Update{
		MessageIDs: mu.MessageIDs,
		Status:     updates.UpdateStatus(mu.Status),
		Recipient:  mu.Recipient,
		Timestamp:  mu.Timestamp,
	})
	if err != nil {
		log.Printf("⚠️  Failed to record message update for %s: %v", key, err)
	}
}

// =================================================================
// UTILITY METHODS
// =================================================================

func (c *Container) Cleanup() {
	log.Println("🧹 Cleaning up container resources...")

	if c.UpdateService != nil {
		log.Println("  ⏰ Stopping update retention...")
		c.UpdateService.Stop()
	}

	if c.Library != nil {
		log.Println("  📱 Disconnecting WhatsApp clients...")
		c.Library.Shutdown()
	}

	if c.DB != nil {
		log.Println("  🗄️  Closing database connections...")
		c.DB.Close()
	}

	if c.RedisClient != nil {
		log.Println("  🔴 Closing Redis connections...")
		c.RedisClient.Close()
	}

	log.Println("✅ Container cleanup complete")
}

func (c *Container) HealthCheck() map[string]bool {
	health := make(map[string]bool)

	if c.DB != nil {
		err := c.DB.Ping()
		health["database"] = err == nil
	} else {
		health["database"] = false
	}

	if c.RedisClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		err := c.RedisClient.Ping(ctx).Err()
		health["redis"] = err == nil
	} else {
		health["redis"] = false
	}

	health["whatsapp_library"] = c.Library != nil
	health["session_service"] = c.SessionService != nil
	health["update_service"] = c.UpdateService != nil

	return health
}

func (c *Container) GetServiceNames() []string {
	return []string{
		"SessionService",
		"EventBridge",
		"UpdateService",
	}
}
