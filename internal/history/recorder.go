package history

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"speech-translation-service/internal/models"
	"speech-translation-service/internal/observability/metrics"
)

const (
	// DefaultRetryDelay is the pause before the single retry of a failed write.
	DefaultRetryDelay = 2 * time.Second
	// DefaultWriteTimeout bounds each individual write attempt.
	DefaultWriteTimeout = 10 * time.Second
)

// ErrClosed is returned by Record after Close.
var ErrClosed = errors.New("history: recorder closed")

// Config holds recorder settings.
type Config struct {
	RetryDelay   time.Duration
	WriteTimeout time.Duration
}

// Recorder fans each record out to every store and scope in the background.
// Each write is isolated: a failure is retried once after RetryDelay, then
// logged and dropped. Callers never wait on the writes.
type Recorder struct {
	stores       []Store
	retryDelay   time.Duration
	writeTimeout time.Duration
	metrics      *metrics.Metrics
	logger       zerolog.Logger

	mu       sync.Mutex
	closed   bool
	inflight sync.WaitGroup
}

// NewRecorder creates a recorder over stores.
func NewRecorder(cfg Config, m *metrics.Metrics, logger zerolog.Logger, stores ...Store) *Recorder {
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = DefaultWriteTimeout
	}
	if m == nil {
		m = metrics.DefaultMetrics
	}
	return &Recorder{
		stores:       stores,
		retryDelay:   cfg.RetryDelay,
		writeTimeout: cfg.WriteTimeout,
		metrics:      m,
		logger:       logger,
	}
}

// Record schedules the writes for rec and returns immediately. The writes
// outlive ctx cancellation but keep its values.
func (r *Recorder) Record(ctx context.Context, scopes []models.Scope, rec models.TranslationRecord) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}
	r.inflight.Add(1)
	r.mu.Unlock()

	bg := context.WithoutCancel(ctx)

	go func() {
		defer r.inflight.Done()

		// errgroup without a context settles every write; Wait only
		// reports the first failure.
		var g errgroup.Group
		for _, store := range r.stores {
			for _, scope := range scopes {
				g.Go(func() error {
					return r.write(bg, store, scope, rec)
				})
			}
		}
		if err := g.Wait(); err != nil {
			r.logger.Warn().
				Err(err).
				Str("recordId", rec.ID).
				Msg("History fan-out finished with failures")
		}
	}()

	return nil
}

func (r *Recorder) write(ctx context.Context, store Store, scope models.Scope, rec models.TranslationRecord) error {
	if scope.IsRoom() {
		rec.CreatedBy = scope.UserID
	}
	log := r.logger.With().
		Str("store", store.Name()).
		Str("scope", scope.String()).
		Str("recordId", rec.ID).
		Logger()

	err := r.attempt(ctx, store, scope, rec)
	if err == nil {
		r.metrics.RecordHistoryWrite(store.Name(), scope.String(), "ok")
		return nil
	}

	log.Warn().Err(err).Dur("retryIn", r.retryDelay).Msg("History write failed, retrying once")

	timer := time.NewTimer(r.retryDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		r.metrics.RecordHistoryWrite(store.Name(), scope.String(), "failed")
		return ctx.Err()
	}

	if err = r.attempt(ctx, store, scope, rec); err != nil {
		log.Error().Err(err).Msg("History write retry failed, dropping record")
		r.metrics.RecordHistoryWrite(store.Name(), scope.String(), "failed")
		return err
	}

	log.Debug().Msg("History write succeeded on retry")
	r.metrics.RecordHistoryWrite(store.Name(), scope.String(), "retried_ok")
	return nil
}

func (r *Recorder) attempt(ctx context.Context, store Store, scope models.Scope, rec models.TranslationRecord) error {
	ctx, cancel := context.WithTimeout(ctx, r.writeTimeout)
	defer cancel()
	return store.Append(ctx, scope, rec)
}

// Wait blocks until every scheduled write has settled.
func (r *Recorder) Wait() {
	r.inflight.Wait()
}

// Close rejects new records and waits for pending writes, or for ctx.
func (r *Recorder) Close(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
