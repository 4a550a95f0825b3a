package updatessrv

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/Abraxas-365/craftable/logx"
	"github.com/erpconnect/wagateway/pkg/kernel"
	"github.com/erpconnect/wagateway/updates"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// Options parámetros de retención y reenvío
type Options struct {
	MaxPerSession  int
	MaxAge         time.Duration
	PruneSchedule  string
	WebhookBaseURL string
}

// Service acumula los acuses de entrega por sesión y opcionalmente los
// reenvía a un webhook por sitio
type Service struct {
	repo       updates.Repository
	opts       Options
	httpClient *http.Client
	cronParser cron.Parser
	stopChan   chan struct{}
	running    bool
}

func NewService(repo updates.Repository, opts Options) *Service {
	if opts.MaxPerSession <= 0 {
		opts.MaxPerSession = 100
	}
	if opts.MaxAge <= 0 {
		opts.MaxAge = 24 * time.Hour
	}
	return &Service{
		repo:       repo,
		opts:       opts,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		cronParser: cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow),
		stopChan:   make(chan struct{}),
	}
}

// Record guarda un acuse nuevo y lo reenvía al webhook del sitio si hay
// URL base configurada. El reenvío es best effort y no afecta el guardado.
func (s *Service) Record(ctx context.Context, key kernel.SessionKey, update updates.Update) error {
	if update.ID == "" {
		update.ID = kernel.UpdateID(uuid.NewString())
	}
	if update.ReceivedAt.IsZero() {
		update.ReceivedAt = time.Now()
	}

	if err := s.repo.Append(ctx, key, update, s.opts.MaxPerSession); err != nil {
		return err
	}

	if s.opts.WebhookBaseURL != "" {
		go s.forward(key, update)
	}
	return nil
}

// List devuelve los acuses de la sesión, más recientes primero
func (s *Service) List(ctx context.Context, key kernel.SessionKey) ([]updates.Update, error) {
	return s.repo.List(ctx, key)
}

// forward notifica el acuse al webhook del sitio dueño de la sesión
func (s *Service) forward(key kernel.SessionKey, update updates.Update) {
	payload := struct {
		SessionID string         `json:"sessionId"`
		Update    updates.Update `json:"update"`
	}{
		SessionID: key.String(),
		Update:    update,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return
	}

	url := s.opts.WebhookBaseURL + "/" + key.Site()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		logx.Warn("[updates] failed to build webhook request for '%s': %v", key, err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		logx.Warn("[updates] webhook delivery for '%s' failed: %v", key, err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		logx.Warn("[updates] webhook for '%s' answered %d", key, resp.StatusCode)
	}
}

// ==========================================
// Retention
// ==========================================

// StartRetention corre la poda de acuses viejos según el cron
// configurado. Bloquea hasta Stop o cancelación del contexto.
func (s *Service) StartRetention(ctx context.Context) {
	if s.running {
		logx.Warn("[updates] retention already running")
		return
	}

	schedule, err := s.cronParser.Parse(s.opts.PruneSchedule)
	if err != nil {
		logx.Error("[updates] invalid prune schedule %q: %v", s.opts.PruneSchedule, err)
		return
	}

	s.running = true
	logx.Info("[updates] retention started, schedule %q, max age %s", s.opts.PruneSchedule, s.opts.MaxAge)

	for {
		next := schedule.Next(time.Now())
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-s.stopChan:
			timer.Stop()
			return
		case <-timer.C:
			s.pruneOnce(ctx)
		}
	}
}

// Stop detiene la rutina de retención
func (s *Service) Stop() {
	if !s.running {
		return
	}
	close(s.stopChan)
	s.running = false
}

func (s *Service) pruneOnce(ctx context.Context) {
	removed, err := s.repo.Prune(ctx, s.opts.MaxAge)
	if err != nil {
		logx.Error("[updates] prune failed: %v", err)
		return
	}
	if removed > 0 {
		logx.Info("[updates] pruned %d stale update(s)", removed)
	}
}
