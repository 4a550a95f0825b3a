package sessionapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Abraxas-365/craftable/errx/errxfiber"
	"github.com/Abraxas-365/craftable/ptrx"
	"github.com/erpconnect/wagateway/auth"
	"github.com/erpconnect/wagateway/pkg/config"
	"github.com/erpconnect/wagateway/pkg/kernel"
	"github.com/erpconnect/wagateway/sessions"
	"github.com/erpconnect/wagateway/sessions/sessionsrv"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testServiceKey = "svc-secret"

// stubLibrary es el mínimo de sessions.Library que necesitan los handlers
type stubLibrary struct {
	mu            sync.Mutex
	authenticated map[kernel.SessionKey]bool
	active        map[kernel.SessionKey]bool
	onStart       func(cb sessions.SessionCallbacks)
	sentTo        []string
}

func newStubLibrary() *stubLibrary {
	return &stubLibrary{
		authenticated: make(map[kernel.SessionKey]bool),
		active:        make(map[kernel.SessionKey]bool),
	}
}

func (s *stubLibrary) StartSession(ctx context.Context, key kernel.SessionKey, cb sessions.SessionCallbacks) error {
	if s.onStart != nil {
		s.onStart(cb)
	}
	return nil
}

func (s *stubLibrary) DeleteSession(ctx context.Context, key kernel.SessionKey) error { return nil }

func (s *stubLibrary) HasSession(key kernel.SessionKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active[key]
}

func (s *stubLibrary) IsAuthenticated(key kernel.SessionKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticated[key]
}

func (s *stubLibrary) LoadSessions(ctx context.Context) error { return nil }

func (s *stubLibrary) SendText(ctx context.Context, key kernel.SessionKey, to, text string) (kernel.MessageID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sentTo = append(s.sentTo, to)
	return kernel.MessageID("3EB0TESTID"), nil
}

func (s *stubLibrary) SendImage(ctx context.Context, key kernel.SessionKey, to, caption string, data []byte, mimeType string) (kernel.MessageID, error) {
	return kernel.MessageID("3EB0TESTID"), nil
}

func (s *stubLibrary) SendDocument(ctx context.Context, key kernel.SessionKey, to, caption string, data []byte, filename, mimeType string) (kernel.MessageID, error) {
	return kernel.MessageID("3EB0TESTID"), nil
}

func (s *stubLibrary) OnConnecting(fn func(kernel.SessionKey))        {}
func (s *stubLibrary) OnConnected(fn func(kernel.SessionKey))         {}
func (s *stubLibrary) OnDisconnected(fn func(kernel.SessionKey))      {}
func (s *stubLibrary) OnQRUpdated(fn func(kernel.SessionKey, string)) {}

var testRenderer = sessions.QRRendererFunc(func(raw string) (string, error) {
	return "data:image/png;base64," + raw, nil
})

func newTestApp(lib *stubLibrary, serviceKey string) (*fiber.App, *sessions.Store) {
	store := sessions.NewStore(lib)
	svc := sessionsrv.NewService(store, lib, testRenderer, time.Second)
	handler := NewHandler(svc)

	keys := auth.NewKeyMiddleware(config.AuthConfig{ServiceKey: serviceKey})

	app := fiber.New(fiber.Config{ErrorHandler: errxfiber.FiberErrorHandler()})
	api := app.Group("/api", keys.RequireServiceKey())
	session := api.Group("/:site/:session", SessionKeyMiddleware())
	RegisterRoutes(session, handler)
	return app, store
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("X-API-Key", testServiceKey)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &out)
	}
	return resp.StatusCode, out
}

func TestServiceKeyRequired(t *testing.T) {
	app, _ := newTestApp(newStubLibrary(), testServiceKey)

	req := httptest.NewRequest("GET", "/api/acme/main/status", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)
}

func TestServiceKeyMismatch(t *testing.T) {
	app, _ := newTestApp(newStubLibrary(), testServiceKey)

	req := httptest.NewRequest("GET", "/api/acme/main/status", nil)
	req.Header.Set("X-API-Key", "wrong")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 403, resp.StatusCode)
}

func TestServiceKeyUnconfigured(t *testing.T) {
	app, _ := newTestApp(newStubLibrary(), "")

	req := httptest.NewRequest("GET", "/api/acme/main/status", nil)
	req.Header.Set("X-API-Key", testServiceKey)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 503, resp.StatusCode)
}

func TestStatusNewSession(t *testing.T) {
	app, _ := newTestApp(newStubLibrary(), testServiceKey)

	code, body := doJSON(t, app, "GET", "/api/acme/main/status", "")
	assert.Equal(t, 200, code)
	assert.Equal(t, "acme:main", body["sessionId"])
	assert.Equal(t, "NOT_INITIALIZED", body["status"])
	assert.Nil(t, body["qr_code"])
}

func TestStatusExposesQRCode(t *testing.T) {
	lib := newStubLibrary()
	app, store := newTestApp(lib, testServiceKey)

	key := kernel.JoinSessionKey("acme", "main")
	lib.active[key] = true
	store.Update(key, sessions.Patch{
		Status:  sessions.StatusQRReady.Ptr(),
		QRImage: ptrx.String("data:image/png;base64,abc"),
	})

	code, body := doJSON(t, app, "GET", "/api/acme/main/status", "")
	assert.Equal(t, 200, code)
	assert.Equal(t, "QR_READY", body["status"])
	assert.Equal(t, "data:image/png;base64,abc", body["qr_code"])
}

func TestStatusMapsManualDisconnect(t *testing.T) {
	lib := newStubLibrary()
	app, store := newTestApp(lib, testServiceKey)

	key := kernel.JoinSessionKey("acme", "main")
	store.Update(key, sessions.Patch{Status: sessions.StatusDisconnectedManual.Ptr()})

	code, body := doJSON(t, app, "GET", "/api/acme/main/status", "")
	assert.Equal(t, 200, code)
	assert.Equal(t, "DISCONNECTED", body["status"])
}

func TestInitiateAlreadyConnected(t *testing.T) {
	lib := newStubLibrary()
	app, store := newTestApp(lib, testServiceKey)

	key := kernel.JoinSessionKey("acme", "main")
	store.Update(key, sessions.Patch{Status: sessions.StatusConnected.Ptr()})

	code, body := doJSON(t, app, "GET", "/api/acme/main/initiate", "")
	assert.Equal(t, 200, code)
	assert.Equal(t, "CONNECTED", body["status"])
	assert.Equal(t, "Already connected.", body["message"])
}

func TestInitiateReturnsQR(t *testing.T) {
	lib := newStubLibrary()
	lib.onStart = func(cb sessions.SessionCallbacks) {
		cb.OnQRUpdated("fresh-qr")
	}
	app, _ := newTestApp(lib, testServiceKey)

	code, body := doJSON(t, app, "GET", "/api/acme/main/initiate", "")
	assert.Equal(t, 200, code)
	assert.Equal(t, "QR_READY", body["status"])
	assert.Equal(t, "data:image/png;base64,fresh-qr", body["qr_code"])
	assert.Equal(t, "Scan QR code.", body["message"])
}

func TestDisconnect(t *testing.T) {
	lib := newStubLibrary()
	app, store := newTestApp(lib, testServiceKey)

	key := kernel.JoinSessionKey("acme", "main")
	store.Update(key, sessions.Patch{Status: sessions.StatusConnected.Ptr()})

	code, body := doJSON(t, app, "POST", "/api/acme/main/disconnect", "")
	assert.Equal(t, 200, code)
	assert.Equal(t, "DISCONNECTED", body["status"])

	st, _ := store.Get(key)
	assert.Equal(t, sessions.StatusDisconnectedManual, st.Status)
}

func TestSendRejectsMissingRecipient(t *testing.T) {
	app, _ := newTestApp(newStubLibrary(), testServiceKey)

	code, _ := doJSON(t, app, "POST", "/api/acme/main/send",
		`{"message_type":"Text","message":"hola"}`)
	assert.Equal(t, 400, code)
}

func TestSendRejectsUnknownType(t *testing.T) {
	app, _ := newTestApp(newStubLibrary(), testServiceKey)

	code, _ := doJSON(t, app, "POST", "/api/acme/main/send",
		`{"recipient":"51999888777","message_type":"Sticker"}`)
	assert.Equal(t, 400, code)
}

func TestSendRejectsBadBase64(t *testing.T) {
	lib := newStubLibrary()
	app, store := newTestApp(lib, testServiceKey)
	store.Update(kernel.JoinSessionKey("acme", "main"), sessions.Patch{Status: sessions.StatusConnected.Ptr()})

	code, _ := doJSON(t, app, "POST", "/api/acme/main/send",
		`{"recipient":"51999888777","message_type":"Image","media":{"base64":"!!not-base64!!","filename":"a.png","mimetype":"image/png"}}`)
	assert.Equal(t, 400, code)
}

func TestSendFailsWhenNotConnected(t *testing.T) {
	app, _ := newTestApp(newStubLibrary(), testServiceKey)

	code, _ := doJSON(t, app, "POST", "/api/acme/main/send",
		`{"recipient":"51999888777","message_type":"Text","message":"hola"}`)
	assert.Equal(t, 400, code)
}

func TestSendText(t *testing.T) {
	lib := newStubLibrary()
	app, store := newTestApp(lib, testServiceKey)
	store.Update(kernel.JoinSessionKey("acme", "main"), sessions.Patch{Status: sessions.StatusConnected.Ptr()})

	code, body := doJSON(t, app, "POST", "/api/acme/main/send",
		`{"recipient":"51999888777","message_type":"Text","message":"hola"}`)
	assert.Equal(t, 200, code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "3EB0TESTID", body["message_id"])

	lib.mu.Lock()
	defer lib.mu.Unlock()
	require.Len(t, lib.sentTo, 1)
	assert.Equal(t, "51999888777@s.whatsapp.net", lib.sentTo[0])
}

func TestSendTextFallsBackToCaption(t *testing.T) {
	lib := newStubLibrary()
	app, store := newTestApp(lib, testServiceKey)
	store.Update(kernel.JoinSessionKey("acme", "main"), sessions.Patch{Status: sessions.StatusConnected.Ptr()})

	code, _ := doJSON(t, app, "POST", "/api/acme/main/send",
		`{"recipient":"51999888777","message_type":"Text","options":{"caption":"desde caption"}}`)
	assert.Equal(t, 200, code)
}

func TestSendTextWithoutContent(t *testing.T) {
	lib := newStubLibrary()
	app, store := newTestApp(lib, testServiceKey)
	store.Update(kernel.JoinSessionKey("acme", "main"), sessions.Patch{Status: sessions.StatusConnected.Ptr()})

	code, _ := doJSON(t, app, "POST", "/api/acme/main/send",
		`{"recipient":"51999888777","message_type":"Text"}`)
	assert.Equal(t, 400, code)
}
