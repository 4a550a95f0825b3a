package sessionsrv

import (
	"context"
	"strings"
	"time"

	"github.com/Abraxas-365/craftable/logx"
	"github.com/Abraxas-365/craftable/ptrx"
	"github.com/erpconnect/wagateway/pkg/kernel"
	"github.com/erpconnect/wagateway/sessions"
)

// DefaultInitiateTimeout presupuesto de espera para que la librería entregue
// un QR o una conexión durante la iniciación
const DefaultInitiateTimeout = 25 * time.Second

// Service coordina la iniciación de sesiones, la desconexión y el envío de
// mensajes contra la librería externa, manteniendo el Store como única vista
// local del estado.
type Service struct {
	store           *sessions.Store
	lib             sessions.Library
	qr              sessions.QRRenderer
	initiateTimeout time.Duration
}

// NewService crea el servicio de sesiones. timeout <= 0 usa el presupuesto
// por defecto.
func NewService(store *sessions.Store, lib sessions.Library, qr sessions.QRRenderer, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = DefaultInitiateTimeout
	}
	return &Service{
		store:           store,
		lib:             lib,
		qr:              qr,
		initiateTimeout: timeout,
	}
}

// outcome es el desenlace de una iniciación; exactamente uno gana la carrera
type outcome struct {
	res sessions.InitiateResult
	err error
}

// Initiate inicia (o reutiliza) la sesión key.
//
// Con forceNew=false y estado CONNECTED o QR_READY retorna de inmediato sin
// tocar la librería. En otro caso arranca la sesión y espera, dentro del
// presupuesto, al primero de: QR listo, conexión, desconexión, o fallo del
// arranque. El timeout no fuerza ninguna transición: la sesión puede
// resolverse después en segundo plano vía el bridge de eventos.
func (s *Service) Initiate(ctx context.Context, key kernel.SessionKey, forceNew bool) (sessions.InitiateResult, error) {
	st := s.store.GetOrCreate(key)

	if !forceNew && (st.Status == sessions.StatusConnected || st.Status == sessions.StatusQRReady) {
		msg := "QR code is ready for scanning."
		if st.Status == sessions.StatusConnected {
			msg = "Already connected."
		}
		return sessions.InitiateResult{
			Key:     key,
			Status:  st.Status,
			QRImage: st.QRImage,
			Message: msg,
		}, nil
	}

	if forceNew {
		logx.Info("[sessions] forcing new session for '%s'", key)
		if err := s.lib.DeleteSession(ctx, key); err != nil {
			// Best-effort: la sesión puede no existir todavía
			logx.Warn("[sessions] could not delete session '%s', it might not exist: %v", key, err)
		}
	}

	s.store.Update(key, sessions.Patch{
		Status:    sessions.StatusConnecting.Ptr(),
		QRImage:   ptrx.String(""),
		LastError: ptrx.String(""),
	})

	settled := make(chan outcome, 1)
	settle := func(o outcome) {
		// El primer desenlace gana; los siguientes no-op
		select {
		case settled <- o:
		default:
		}
	}

	cb := sessions.SessionCallbacks{
		OnQRUpdated: func(qr string) {
			img, err := s.qr.Render(qr)
			if err != nil {
				logx.Error("[sessions] session '%s' failed to render QR: %v", key, err)
				s.store.Update(key, sessions.Patch{
					Status:    sessions.StatusErrorQRGeneration.Ptr(),
					LastError: ptrx.String("failed to render QR image"),
				})
				settle(outcome{err: sessions.ErrQRGeneration().WithCause(err)})
				return
			}
			s.store.Update(key, sessions.Patch{
				Status:    sessions.StatusQRReady.Ptr(),
				QRImage:   &img,
				LastError: ptrx.String(""),
			})
			settle(outcome{res: sessions.InitiateResult{
				Key:     key,
				Status:  sessions.StatusQRReady,
				QRImage: img,
				Message: "Scan QR code.",
			}})
		},
		OnConnected: func() {
			s.store.Update(key, sessions.Patch{
				Status:    sessions.StatusConnected.Ptr(),
				QRImage:   ptrx.String(""),
				LastError: ptrx.String(""),
			})
			settle(outcome{res: sessions.InitiateResult{
				Key:     key,
				Status:  sessions.StatusConnected,
				Message: "Session connected successfully.",
			}})
		},
		OnDisconnected: func() {
			s.store.Update(key, sessions.Patch{
				Status: sessions.StatusDisconnected.Ptr(),
			})
			settle(outcome{err: sessions.ErrDisconnectedDuringInit().WithDetail("session", key.String())})
		},
	}

	// El arranque sobrevive al request: un QR escaneado tarde aún debe poder
	// completar la sesión en segundo plano.
	startCtx := context.WithoutCancel(ctx)
	go func() {
		if err := s.lib.StartSession(startCtx, key, cb); err != nil {
			logx.Error("[sessions] start failed for session '%s': %v", key, err)
			s.store.Update(key, sessions.Patch{
				Status:    sessions.StatusError.Ptr(),
				LastError: ptrx.String(err.Error()),
			})
			settle(outcome{err: sessions.ErrInitiateFailed().WithCause(err)})
		}
	}()

	timer := time.NewTimer(s.initiateTimeout)
	defer timer.Stop()

	select {
	case o := <-settled:
		return o.res, o.err
	case <-timer.C:
		return sessions.InitiateResult{}, sessions.ErrInitiateTimeout().
			WithDetail("session", key.String()).
			WithDetail("timeout", s.initiateTimeout.String())
	case <-ctx.Done():
		return sessions.InitiateResult{}, ctx.Err()
	}
}

// Disconnect elimina la sesión de la librería. El registro rastreado se
// conserva, marcado como desconexión manual.
func (s *Service) Disconnect(ctx context.Context, key kernel.SessionKey) error {
	logx.Info("[sessions] disconnecting session '%s'", key)
	if err := s.lib.DeleteSession(ctx, key); err != nil {
		s.store.Update(key, sessions.Patch{
			Status:    sessions.StatusErrorDisconnect.Ptr(),
			LastError: ptrx.String(err.Error()),
		})
		return sessions.ErrDisconnectFailed().WithCause(err)
	}
	s.store.Update(key, sessions.Patch{
		Status:    sessions.StatusDisconnectedManual.Ptr(),
		QRImage:   ptrx.String(""),
		LastError: ptrx.String(""),
	})
	return nil
}

// Send despacha un mensaje por la sesión key. Precondición: el estado
// rastreado debe ser CONNECTED; se verifica antes de tocar cualquier
// primitiva de envío de la librería.
func (s *Service) Send(ctx context.Context, key kernel.SessionKey, req sessions.SendRequest) (kernel.MessageID, error) {
	status := sessions.StatusNotInitialized
	if st, ok := s.store.Get(key); ok {
		status = st.Status
	}
	if status != sessions.StatusConnected {
		return "", sessions.ErrNotConnected().
			WithDetail("session", key.String()).
			WithDetail("status", string(status.External()))
	}

	to := normalizeRecipient(req.Recipient)

	var (
		id  kernel.MessageID
		err error
	)
	switch req.Type {
	case sessions.MessageTypeText:
		if req.Text == "" {
			return "", sessions.ErrTextRequired()
		}
		id, err = s.lib.SendText(ctx, key, to, req.Text)
	case sessions.MessageTypeImage:
		if req.Media == nil || len(req.Media.Data) == 0 {
			return "", sessions.ErrMediaRequired().WithDetail("type", string(req.Type))
		}
		id, err = s.lib.SendImage(ctx, key, to, req.Text, req.Media.Data, req.Media.MimeType)
	case sessions.MessageTypeDocument:
		if req.Media == nil || len(req.Media.Data) == 0 {
			return "", sessions.ErrMediaRequired().WithDetail("type", string(req.Type))
		}
		id, err = s.lib.SendDocument(ctx, key, to, req.Text, req.Media.Data, req.Media.Filename, req.Media.MimeType)
	default:
		return "", sessions.ErrUnsupportedType().WithDetail("type", string(req.Type))
	}
	if err != nil {
		return "", sessions.ErrSendFailed().WithCause(err)
	}
	if id.IsEmpty() {
		// Respuesta inconsistente de la librería
		return "", sessions.ErrMissingMessageID().WithDetail("session", key.String())
	}

	logx.Info("[sessions] message sent via session '%s', id=%s", key, id)
	return id, nil
}

// normalizeRecipient añade el dominio de usuario por defecto a destinatarios
// sin separador de dominio
func normalizeRecipient(recipient string) string {
	if strings.Contains(recipient, "@") {
		return recipient
	}
	return recipient + "@" + sessions.DefaultUserDomain
}
