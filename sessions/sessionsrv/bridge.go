package sessionsrv

import (
	"sync"

	"github.com/Abraxas-365/craftable/logx"
	"github.com/Abraxas-365/craftable/ptrx"
	"github.com/erpconnect/wagateway/pkg/kernel"
	"github.com/erpconnect/wagateway/sessions"
)

// Bridge se suscribe una única vez al stream global de eventos de la
// librería y proyecta cada evento sobre el Store. No retorna valores a
// ningún llamador: su única salida observable es la mutación del estado
// compartido.
//
// Corre en paralelo con los callbacks por llamada del coordinador de
// iniciación; ambas rutas convergen en las mismas transiciones, así que la
// semántica last-writer-wins del Store es suficiente.
type Bridge struct {
	store *sessions.Store
	qr    sessions.QRRenderer
	once  sync.Once
}

// NewBridge crea el bridge de eventos globales
func NewBridge(store *sessions.Store, qr sessions.QRRenderer) *Bridge {
	return &Bridge{store: store, qr: qr}
}

// Register registra los cuatro listeners globales en la librería. Llamadas
// posteriores no-op: la suscripción es por vida del proceso.
func (b *Bridge) Register(lib sessions.Library) {
	b.once.Do(func() {
		logx.Info("[sessions] registering global event listeners for background sync")

		lib.OnConnecting(func(key kernel.SessionKey) {
			logx.Info("[global event] session '%s' connecting", key)
			b.store.Update(key, sessions.Patch{
				Status:  sessions.StatusConnecting.Ptr(),
				QRImage: ptrx.String(""),
			})
		})

		lib.OnConnected(func(key kernel.SessionKey) {
			logx.Info("[global event] session '%s' connected", key)
			b.store.Update(key, sessions.Patch{
				Status:    sessions.StatusConnected.Ptr(),
				QRImage:   ptrx.String(""),
				LastError: ptrx.String(""),
			})
		})

		lib.OnDisconnected(func(key kernel.SessionKey) {
			logx.Info("[global event] session '%s' disconnected", key)
			// Solo sesiones ya rastreadas: no resucitar claves desconocidas
			if _, ok := b.store.Get(key); ok {
				b.store.Update(key, sessions.Patch{
					Status: sessions.StatusDisconnected.Ptr(),
				})
			}
		})

		lib.OnQRUpdated(func(key kernel.SessionKey, qr string) {
			logx.Info("[global event] session '%s' QR updated (background)", key)
			img, err := b.qr.Render(qr)
			if err != nil {
				logx.Error("[global event] session '%s' failed to render QR: %v", key, err)
				b.store.Update(key, sessions.Patch{
					Status:    sessions.StatusErrorQRGeneration.Ptr(),
					LastError: ptrx.String("Failed to process QR in background."),
				})
				return
			}
			b.store.Update(key, sessions.Patch{
				Status:  sessions.StatusQRReady.Ptr(),
				QRImage: &img,
			})
		})
	})
}
