package sessioninfra

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Abraxas-365/craftable/errx"
	"github.com/Abraxas-365/craftable/logx"
	"github.com/erpconnect/wagateway/pkg/kernel"
	"github.com/erpconnect/wagateway/sessions"

	"go.mau.fi/whatsmeow"
	waProto "go.mau.fi/whatsmeow/binary/proto"
	"go.mau.fi/whatsmeow/store"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"
	"google.golang.org/protobuf/proto"
)

// ==========================================
// WhatsApp Library Adapter
// ==========================================

// MessageUpdate es un acuse de entrega reportado por WhatsApp para
// mensajes salientes. Solo lo expone el adaptador concreto; el
// contrato de sesiones no lo necesita.
type MessageUpdate struct {
	MessageIDs []string
	Status     string
	Recipient  string
	Timestamp  time.Time
}

// managedClient agrupa el cliente de whatsmeow con los callbacks de la
// llamada StartSession vigente
type managedClient struct {
	client *whatsmeow.Client

	mu sync.Mutex
	cb sessions.SessionCallbacks
}

func (m *managedClient) setCallbacks(cb sessions.SessionCallbacks) {
	m.mu.Lock()
	m.cb = cb
	m.mu.Unlock()
}

func (m *managedClient) callbacks() sessions.SessionCallbacks {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cb
}

// Library implementa sessions.Library sobre whatsmeow. Las credenciales
// multi-dispositivo viven en el sqlstore de la librería (mismo Postgres
// del gateway) y el registro propio asocia claves de sesión con JIDs.
type Library struct {
	container *sqlstore.Container
	registry  *PostgresSessionRegistry
	log       waLog.Logger

	mu      sync.RWMutex
	clients map[kernel.SessionKey]*managedClient

	lmu             sync.RWMutex
	onConnecting    []func(kernel.SessionKey)
	onConnected     []func(kernel.SessionKey)
	onDisconnected  []func(kernel.SessionKey)
	onQRUpdated     []func(kernel.SessionKey, string)
	onMessageUpdate []func(kernel.SessionKey, MessageUpdate)
}

// NewLibrary abre el device store de whatsmeow sobre la base de datos
// del gateway y prepara el registro de sesiones
func NewLibrary(ctx context.Context, dsn string, registry *PostgresSessionRegistry, logLevel string) (*Library, error) {
	log := newWALogger(logLevel)
	container, err := sqlstore.New(ctx, "postgres", dsn, log)
	if err != nil {
		return nil, errx.Wrap(err, "failed to open whatsapp device store", errx.TypeInternal)
	}
	if err := registry.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	return &Library{
		container: container,
		registry:  registry,
		log:       log,
		clients:   make(map[kernel.SessionKey]*managedClient),
	}, nil
}

func newWALogger(level string) waLog.Logger {
	switch strings.ToLower(level) {
	case "silent":
		return waLog.Noop
	case "debug":
		return waLog.Stdout("WhatsApp", "DEBUG", true)
	case "warn":
		return waLog.Stdout("WhatsApp", "WARN", true)
	case "info":
		return waLog.Stdout("WhatsApp", "INFO", true)
	default:
		return waLog.Stdout("WhatsApp", "ERROR", true)
	}
}

// ==========================================
// Global Listeners
// ==========================================

func (l *Library) OnConnecting(fn func(kernel.SessionKey)) {
	l.lmu.Lock()
	l.onConnecting = append(l.onConnecting, fn)
	l.lmu.Unlock()
}

func (l *Library) OnConnected(fn func(kernel.SessionKey)) {
	l.lmu.Lock()
	l.onConnected = append(l.onConnected, fn)
	l.lmu.Unlock()
}

func (l *Library) OnDisconnected(fn func(kernel.SessionKey)) {
	l.lmu.Lock()
	l.onDisconnected = append(l.onDisconnected, fn)
	l.lmu.Unlock()
}

func (l *Library) OnQRUpdated(fn func(kernel.SessionKey, string)) {
	l.lmu.Lock()
	l.onQRUpdated = append(l.onQRUpdated, fn)
	l.lmu.Unlock()
}

// OnMessageUpdate registra un listener de acuses de entrega
func (l *Library) OnMessageUpdate(fn func(kernel.SessionKey, MessageUpdate)) {
	l.lmu.Lock()
	l.onMessageUpdate = append(l.onMessageUpdate, fn)
	l.lmu.Unlock()
}

func (l *Library) emitConnecting(key kernel.SessionKey) {
	l.lmu.RLock()
	fns := l.onConnecting
	l.lmu.RUnlock()
	for _, fn := range fns {
		fn(key)
	}
}

func (l *Library) emitConnected(key kernel.SessionKey, mc *managedClient) {
	if cb := mc.callbacks(); cb.OnConnected != nil {
		cb.OnConnected()
	}
	l.lmu.RLock()
	fns := l.onConnected
	l.lmu.RUnlock()
	for _, fn := range fns {
		fn(key)
	}
}

func (l *Library) emitDisconnected(key kernel.SessionKey, mc *managedClient) {
	if mc != nil {
		if cb := mc.callbacks(); cb.OnDisconnected != nil {
			cb.OnDisconnected()
		}
	}
	l.lmu.RLock()
	fns := l.onDisconnected
	l.lmu.RUnlock()
	for _, fn := range fns {
		fn(key)
	}
}

func (l *Library) emitQRUpdated(key kernel.SessionKey, mc *managedClient, qr string) {
	if cb := mc.callbacks(); cb.OnQRUpdated != nil {
		cb.OnQRUpdated(qr)
	}
	l.lmu.RLock()
	fns := l.onQRUpdated
	l.lmu.RUnlock()
	for _, fn := range fns {
		fn(key, qr)
	}
}

func (l *Library) emitMessageUpdate(key kernel.SessionKey, update MessageUpdate) {
	l.lmu.RLock()
	fns := l.onMessageUpdate
	l.lmu.RUnlock()
	for _, fn := range fns {
		fn(key, update)
	}
}

// ==========================================
// Session Lifecycle
// ==========================================

// StartSession crea (o reutiliza) el cliente de la clave y lo conecta.
// Si el dispositivo no tiene credenciales, los códigos QR fluyen por
// los callbacks hasta que el usuario vincula o el canal expira.
func (l *Library) StartSession(ctx context.Context, key kernel.SessionKey, cb sessions.SessionCallbacks) error {
	mc, err := l.obtainClient(ctx, key)
	if err != nil {
		return err
	}
	mc.setCallbacks(cb)

	if mc.client.IsConnected() {
		l.emitConnected(key, mc)
		return nil
	}

	l.emitConnecting(key)

	if mc.client.Store.ID == nil {
		// GetQRChannel debe llamarse antes de Connect
		qrChan, err := mc.client.GetQRChannel(ctx)
		if err != nil {
			return errx.Wrap(err, "failed to open QR channel", errx.TypeInternal)
		}
		if err := mc.client.Connect(); err != nil {
			return errx.Wrap(err, "failed to connect whatsapp client", errx.TypeInternal)
		}
		go l.watchQR(key, mc, qrChan)
		return nil
	}

	if err := mc.client.Connect(); err != nil {
		return errx.Wrap(err, "failed to connect whatsapp client", errx.TypeInternal)
	}
	return nil
}

func (l *Library) watchQR(key kernel.SessionKey, mc *managedClient, qrChan <-chan whatsmeow.QRChannelItem) {
	for item := range qrChan {
		switch item.Event {
		case "code":
			l.emitQRUpdated(key, mc, item.Code)
		case "success":
			l.bindDevice(key, mc)
			// events.Connected llega por el event handler
		case "timeout", "err-client-outdated", "err-scanned-without-multidevice":
			logx.Warn("[whatsapp] QR channel for '%s' closed: %s", key, item.Event)
			l.emitDisconnected(key, mc)
		}
	}
}

func (l *Library) bindDevice(key kernel.SessionKey, mc *managedClient) {
	id := mc.client.Store.ID
	if id == nil {
		return
	}
	if err := l.registry.Bind(context.Background(), key, id.String()); err != nil {
		logx.Error("[whatsapp] failed to bind session '%s' to device %s: %v", key, id, err)
	}
}

// obtainClient devuelve el cliente existente de la clave o construye uno
// nuevo, restaurando el dispositivo registrado si lo hay
func (l *Library) obtainClient(ctx context.Context, key kernel.SessionKey) (*managedClient, error) {
	l.mu.RLock()
	mc, ok := l.clients[key]
	l.mu.RUnlock()
	if ok {
		return mc, nil
	}

	device, err := l.deviceFor(ctx, key)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if existing, ok := l.clients[key]; ok {
		return existing, nil
	}
	mc = &managedClient{client: whatsmeow.NewClient(device, l.log)}
	mc.client.AddEventHandler(l.eventHandler(key, mc))
	l.clients[key] = mc
	return mc, nil
}

func (l *Library) deviceFor(ctx context.Context, key kernel.SessionKey) (*store.Device, error) {
	jidStr, err := l.registry.Lookup(ctx, key)
	if err != nil {
		return nil, err
	}
	if jidStr != "" {
		jid, err := types.ParseJID(jidStr)
		if err == nil {
			device, err := l.container.GetDevice(ctx, jid)
			if err != nil {
				return nil, errx.Wrap(err, "failed to load registered device", errx.TypeInternal)
			}
			if device != nil {
				return device, nil
			}
		}
		// el registro apunta a un dispositivo que ya no existe
		if err := l.registry.Unbind(ctx, key); err != nil {
			logx.Warn("[whatsapp] failed to drop stale registry entry for '%s': %v", key, err)
		}
	}
	return l.container.NewDevice(), nil
}

func (l *Library) eventHandler(key kernel.SessionKey, mc *managedClient) func(evt interface{}) {
	return func(evt interface{}) {
		switch v := evt.(type) {
		case *events.Connected:
			l.bindDevice(key, mc)
			l.emitConnected(key, mc)

		case *events.Disconnected:
			l.emitDisconnected(key, mc)

		case *events.LoggedOut:
			logx.Warn("[whatsapp] session '%s' logged out (reason %v)", key, v.Reason)
			l.emitDisconnected(key, mc)

		case *events.Receipt:
			update, ok := receiptToUpdate(v)
			if !ok {
				return
			}
			l.emitMessageUpdate(key, update)
		}
	}
}

func receiptToUpdate(r *events.Receipt) (MessageUpdate, bool) {
	var status string
	switch r.Type {
	case types.ReceiptTypeDelivered:
		status = "delivered"
	case types.ReceiptTypeRead:
		status = "read"
	case types.ReceiptTypePlayed:
		status = "played"
	default:
		return MessageUpdate{}, false
	}
	return MessageUpdate{
		MessageIDs: append([]string{}, r.MessageIDs...),
		Status:     status,
		Recipient:  r.Chat.String(),
		Timestamp:  r.Timestamp,
	}, true
}

// DeleteSession cierra la sesión de WhatsApp y borra sus credenciales
func (l *Library) DeleteSession(ctx context.Context, key kernel.SessionKey) error {
	l.mu.Lock()
	mc, ok := l.clients[key]
	delete(l.clients, key)
	l.mu.Unlock()

	if ok {
		if mc.client.Store.ID != nil {
			if err := mc.client.Logout(ctx); err != nil {
				logx.Warn("[whatsapp] logout for '%s' failed: %v", key, err)
			}
		}
		mc.client.Disconnect()
		if mc.client.Store.ID != nil {
			if err := l.container.DeleteDevice(ctx, mc.client.Store); err != nil {
				return errx.Wrap(err, "failed to delete whatsapp device", errx.TypeInternal)
			}
		}
	} else {
		// sin cliente en memoria, borra el dispositivo registrado si existe
		jidStr, err := l.registry.Lookup(ctx, key)
		if err != nil {
			return err
		}
		if jidStr != "" {
			if jid, perr := types.ParseJID(jidStr); perr == nil {
				device, derr := l.container.GetDevice(ctx, jid)
				if derr == nil && device != nil {
					if err := l.container.DeleteDevice(ctx, device); err != nil {
						return errx.Wrap(err, "failed to delete whatsapp device", errx.TypeInternal)
					}
				}
			}
		}
	}

	return l.registry.Unbind(ctx, key)
}

// HasSession indica si hay un cliente en memoria para la clave
func (l *Library) HasSession(key kernel.SessionKey) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.clients[key]
	return ok
}

// IsAuthenticated indica si el cliente de la clave tiene credenciales
func (l *Library) IsAuthenticated(key kernel.SessionKey) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	mc, ok := l.clients[key]
	return ok && mc.client.Store.ID != nil
}

// LoadSessions reconstruye los clientes de todas las sesiones
// registradas y los reconecta. Se llama una vez al arrancar.
func (l *Library) LoadSessions(ctx context.Context) error {
	bindings, err := l.registry.All(ctx)
	if err != nil {
		return err
	}
	for key := range bindings {
		mc, err := l.obtainClient(ctx, key)
		if err != nil {
			logx.Error("[whatsapp] failed to restore session '%s': %v", key, err)
			continue
		}
		if mc.client.Store.ID == nil {
			// el dispositivo perdió sus credenciales, no hay nada que conectar
			logx.Warn("[whatsapp] registered session '%s' has no credentials, skipping", key)
			continue
		}
		if mc.client.IsConnected() {
			continue
		}
		l.emitConnecting(key)
		if err := mc.client.Connect(); err != nil {
			logx.Error("[whatsapp] failed to reconnect session '%s': %v", key, err)
		}
	}
	logx.Info("[whatsapp] restored %d registered session(s)", len(bindings))
	return nil
}

// Shutdown desconecta todos los clientes sin tocar credenciales
func (l *Library) Shutdown() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, mc := range l.clients {
		mc.client.Disconnect()
		delete(l.clients, key)
	}
}

// ==========================================
// Send Primitives
// ==========================================

func (l *Library) connectedClient(key kernel.SessionKey) (*managedClient, error) {
	l.mu.RLock()
	mc, ok := l.clients[key]
	l.mu.RUnlock()
	if !ok {
		return nil, errx.New("no active whatsapp client for session", errx.TypeBusiness)
	}
	return mc, nil
}

func (l *Library) SendText(ctx context.Context, key kernel.SessionKey, to, text string) (kernel.MessageID, error) {
	mc, err := l.connectedClient(key)
	if err != nil {
		return "", err
	}
	jid, err := types.ParseJID(to)
	if err != nil {
		return "", errx.Wrap(err, "invalid recipient JID", errx.TypeValidation)
	}
	msg := &waProto.Message{Conversation: proto.String(text)}
	resp, err := mc.client.SendMessage(ctx, jid, msg)
	if err != nil {
		return "", errx.Wrap(err, "failed to send text message", errx.TypeInternal)
	}
	return kernel.MessageID(resp.ID), nil
}

func (l *Library) SendImage(ctx context.Context, key kernel.SessionKey, to, caption string, data []byte, mimeType string) (kernel.MessageID, error) {
	mc, err := l.connectedClient(key)
	if err != nil {
		return "", err
	}
	jid, err := types.ParseJID(to)
	if err != nil {
		return "", errx.Wrap(err, "invalid recipient JID", errx.TypeValidation)
	}
	up, err := mc.client.Upload(ctx, data, whatsmeow.MediaImage)
	if err != nil {
		return "", errx.Wrap(err, "failed to upload image", errx.TypeInternal)
	}
	msg := &waProto.Message{
		ImageMessage: &waProto.ImageMessage{
			Caption:       proto.String(caption),
			Mimetype:      proto.String(mimeType),
			URL:           &up.URL,
			DirectPath:    &up.DirectPath,
			MediaKey:      up.MediaKey,
			FileEncSHA256: up.FileEncSHA256,
			FileSHA256:    up.FileSHA256,
			FileLength:    &up.FileLength,
		},
	}
	resp, err := mc.client.SendMessage(ctx, jid, msg)
	if err != nil {
		return "", errx.Wrap(err, "failed to send image message", errx.TypeInternal)
	}
	return kernel.MessageID(resp.ID), nil
}

func (l *Library) SendDocument(ctx context.Context, key kernel.SessionKey, to, caption string, data []byte, filename, mimeType string) (kernel.MessageID, error) {
	mc, err := l.connectedClient(key)
	if err != nil {
		return "", err
	}
	jid, err := types.ParseJID(to)
	if err != nil {
		return "", errx.Wrap(err, "invalid recipient JID", errx.TypeValidation)
	}
	up, err := mc.client.Upload(ctx, data, whatsmeow.MediaDocument)
	if err != nil {
		return "", errx.Wrap(err, "failed to upload document", errx.TypeInternal)
	}
	msg := &waProto.Message{
		DocumentMessage: &waProto.DocumentMessage{
			Title:         proto.String(filename),
			FileName:      proto.String(filename),
			Caption:       proto.String(caption),
			Mimetype:      proto.String(mimeType),
			URL:           &up.URL,
			DirectPath:    &up.DirectPath,
			MediaKey:      up.MediaKey,
			FileEncSHA256: up.FileEncSHA256,
			FileSHA256:    up.FileSHA256,
			FileLength:    &up.FileLength,
		},
	}
	resp, err := mc.client.SendMessage(ctx, jid, msg)
	if err != nil {
		return "", errx.Wrap(err, "failed to send document message", errx.TypeInternal)
	}
	return kernel.MessageID(resp.ID), nil
}
