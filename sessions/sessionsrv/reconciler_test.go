package sessionsrv

import (
	"testing"
	"time"

	"github.com/Abraxas-365/craftable/ptrx"
	"github.com/erpconnect/wagateway/pkg/kernel"
	"github.com/erpconnect/wagateway/sessions"
	"github.com/stretchr/testify/assert"
)

func TestReconcilePromotesToConnected(t *testing.T) {
	lib := newFakeLibrary()
	svc, store := newTestService(lib, okRenderer, time.Second)
	key := kernel.JoinSessionKey("acme", "main")

	store.Update(key, sessions.Patch{
		Status:    sessions.StatusDisconnected.Ptr(),
		LastError: ptrx.String("stale"),
	})
	lib.authenticated[key] = true

	st := svc.Reconcile(key)
	assert.Equal(t, sessions.StatusConnected, st.Status)
	assert.Empty(t, st.QRImage)
	assert.Empty(t, st.LastError)
}

func TestReconcilePrimesUnknownAuthenticatedSession(t *testing.T) {
	lib := newFakeLibrary()
	svc, _ := newTestService(lib, okRenderer, time.Second)
	key := kernel.JoinSessionKey("acme", "restored")
	lib.authenticated[key] = true

	// primera lectura tras un reinicio: el registro no existe todavía
	st := svc.Reconcile(key)
	assert.Equal(t, sessions.StatusConnected, st.Status)
}

func TestReconcileDetectsLibraryMismatch(t *testing.T) {
	lib := newFakeLibrary()
	svc, store := newTestService(lib, okRenderer, time.Second)
	key := kernel.JoinSessionKey("acme", "main")

	store.Update(key, sessions.Patch{Status: sessions.StatusConnected.Ptr()})

	st := svc.Reconcile(key)
	assert.Equal(t, sessions.StatusDisconnected, st.Status)
	assert.Equal(t, "Session mismatch with library.", st.LastError)
}

func TestReconcileDetectsLostQRSession(t *testing.T) {
	lib := newFakeLibrary()
	svc, store := newTestService(lib, okRenderer, time.Second)
	key := kernel.JoinSessionKey("acme", "main")

	store.Update(key, sessions.Patch{
		Status:  sessions.StatusQRReady.Ptr(),
		QRImage: ptrx.String("img:pending"),
	})

	st := svc.Reconcile(key)
	assert.Equal(t, sessions.StatusDisconnected, st.Status)
	assert.Empty(t, st.QRImage)
	assert.Equal(t, "QR session lost.", st.LastError)
}

func TestReconcileKeepsLiveQRSession(t *testing.T) {
	lib := newFakeLibrary()
	svc, store := newTestService(lib, okRenderer, time.Second)
	key := kernel.JoinSessionKey("acme", "main")

	lib.active[key] = true
	store.Update(key, sessions.Patch{
		Status:  sessions.StatusQRReady.Ptr(),
		QRImage: ptrx.String("img:pending"),
	})

	st := svc.Reconcile(key)
	assert.Equal(t, sessions.StatusQRReady, st.Status)
	assert.Equal(t, "img:pending", st.QRImage)
}

func TestReconcileLeavesManualDisconnectAlone(t *testing.T) {
	lib := newFakeLibrary()
	svc, store := newTestService(lib, okRenderer, time.Second)
	key := kernel.JoinSessionKey("acme", "main")

	store.Update(key, sessions.Patch{Status: sessions.StatusDisconnectedManual.Ptr()})

	st := svc.Reconcile(key)
	assert.Equal(t, sessions.StatusDisconnectedManual, st.Status)
}

func TestReconcileIsIdempotent(t *testing.T) {
	lib := newFakeLibrary()
	svc, store := newTestService(lib, okRenderer, time.Second)
	key := kernel.JoinSessionKey("acme", "main")

	store.Update(key, sessions.Patch{Status: sessions.StatusConnected.Ptr()})

	first := svc.Reconcile(key)
	second := svc.Reconcile(key)
	assert.Equal(t, first, second)
}
