package sessionsrv

import (
	"github.com/Abraxas-365/craftable/logx"
	"github.com/Abraxas-365/craftable/ptrx"
	"github.com/erpconnect/wagateway/pkg/kernel"
	"github.com/erpconnect/wagateway/sessions"
)

// Reconcile corrige el estado rastreado contra la vista autoritativa de la
// librería y retorna el resultado. Se evalúa en cada lectura de status: el
// stream de eventos de desconexión puede llegar tarde o perderse, y esta
// re-derivación cierra esa brecha sin polling continuo.
//
// Es idempotente y no puede fallar.
func (s *Service) Reconcile(key kernel.SessionKey) sessions.TrackedState {
	st := s.store.GetOrCreate(key)

	if s.lib.IsAuthenticated(key) {
		if st.Status != sessions.StatusConnected {
			logx.Info("[sessions] reconciling '%s': library confirms CONNECTED, local state was %s", key, st.Status)
			st = s.store.Update(key, sessions.Patch{
				Status:    sessions.StatusConnected.Ptr(),
				QRImage:   ptrx.String(""),
				LastError: ptrx.String(""),
			})
		}
		return st
	}

	switch {
	case st.Status == sessions.StatusConnected:
		// La fuente autoritativa ya no está de acuerdo
		logx.Warn("[sessions] reconciling '%s': local state was CONNECTED but library does not confirm", key)
		st = s.store.Update(key, sessions.Patch{
			Status:    sessions.StatusDisconnected.Ptr(),
			LastError: ptrx.String("Session mismatch with library."),
		})
	case st.Status == sessions.StatusQRReady && !s.lib.HasSession(key):
		logx.Warn("[sessions] reconciling '%s': local state was QR_READY but library has no session", key)
		st = s.store.Update(key, sessions.Patch{
			Status:    sessions.StatusDisconnected.Ptr(),
			QRImage:   ptrx.String(""),
			LastError: ptrx.String("QR session lost."),
		})
	default:
		// NOT_INITIALIZED, CONNECTING, estados de error y desconexiones
		// manuales se dejan como están
	}
	return st
}
