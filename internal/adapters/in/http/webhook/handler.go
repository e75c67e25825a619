// Package webhook receives registry notifications over HTTP.
package webhook

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/bnema/zerowrap"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/bnema/dockyard/internal/adapters/dto"
	"github.com/bnema/dockyard/internal/adapters/in/http/middleware"
	"github.com/bnema/dockyard/internal/adapters/out/telemetry"
	"github.com/bnema/dockyard/internal/boundaries/in"
	"github.com/bnema/dockyard/internal/boundaries/out"
	"github.com/bnema/dockyard/internal/domain"
)

const (
	// DefaultPath is where registries post notification envelopes.
	DefaultPath = "/v2/webhooks/events"

	// CloudEventsPath accepts the same payloads wrapped in a CloudEvent.
	CloudEventsPath = "/v2/webhooks/cloudevents"

	// DefaultMaxBodySize bounds a single delivery.
	DefaultMaxBodySize = 1 << 20
)

// Config configures the webhook endpoints.
type Config struct {
	Path           string
	Token          string
	MaxBodySize    int64
	TrustedProxies middleware.TrustedProxies
}

// Handler serves the webhook endpoints.
type Handler struct {
	ingest  in.IngestService
	limiter out.RateLimiter
	cfg     Config
	log     zerowrap.Logger
	metrics *telemetry.Metrics
}

// NewHandler creates a webhook handler. limiter may be nil.
func NewHandler(ingest in.IngestService, limiter out.RateLimiter, cfg Config, log zerowrap.Logger) *Handler {
	if cfg.Path == "" {
		cfg.Path = DefaultPath
	}
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = DefaultMaxBodySize
	}
	return &Handler{
		ingest:  ingest,
		limiter: limiter,
		cfg:     cfg,
		log:     log,
	}
}

// SetMetrics sets the telemetry instruments.
func (h *Handler) SetMetrics(m *telemetry.Metrics) {
	h.metrics = m
}

// RegisterRoutes registers the webhook routes on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("POST "+h.cfg.Path, h.guard(http.HandlerFunc(h.handleEnvelope)))
	mux.Handle("POST "+CloudEventsPath, h.guard(http.HandlerFunc(h.handleCloudEvent)))
}

// guard applies the token check, rate limit and body limit shared by both
// endpoints.
func (h *Handler) guard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := zerowrap.CtxWithFields(r.Context(), map[string]any{
			zerowrap.FieldLayer:   "adapter",
			zerowrap.FieldAdapter: "http",
			zerowrap.FieldHandler: "webhook",
			zerowrap.FieldPath:    r.URL.Path,
		})
		r = r.WithContext(ctx)
		log := zerowrap.FromCtx(ctx)

		if !h.authorized(r) {
			log.Warn().Msg("webhook delivery with invalid token")
			h.sendError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		if h.limiter != nil {
			key := "ip:" + h.cfg.TrustedProxies.ClientIP(r)
			if !h.limiter.Allow(ctx, key) {
				if h.metrics != nil {
					h.metrics.WebhookThrottled.Add(ctx, 1, metric.WithAttributes(attribute.String("path", r.URL.Path)))
				}
				w.Header().Set("Retry-After", "1")
				h.sendError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
		}

		r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxBodySize)
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) authorized(r *http.Request) bool {
	if h.cfg.Token == "" {
		return true
	}
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(strings.TrimSpace(token)), []byte(h.cfg.Token)) == 1
}

// handleEnvelope accepts a registry notification envelope. Once the body
// decodes the answer is 200 when every event was processed, skipped or
// rejected, so events dropped on purpose are not redelivered. Any event that
// failed on a store error turns the answer into 503 and the registry retries
// the whole envelope; ingestion is idempotent.
func (h *Handler) handleEnvelope(w http.ResponseWriter, r *http.Request) {
	log := zerowrap.FromCtx(r.Context())

	if !acceptedContentType(r.Header.Get("Content-Type")) {
		h.sendError(w, http.StatusUnsupportedMediaType, "unsupported content type")
		return
	}

	var envelope domain.Notification
	if err := json.NewDecoder(r.Body).Decode(&envelope); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.sendError(w, http.StatusRequestEntityTooLarge, "body too large")
			return
		}
		log.Warn().Err(err).Msg("undecodable notification envelope")
		h.sendError(w, http.StatusBadRequest, "invalid notification envelope")
		return
	}

	h.dispatch(w, r, envelope)
}

func (h *Handler) dispatch(w http.ResponseWriter, r *http.Request, envelope domain.Notification) {
	summary := h.ingest.HandleNotification(r.Context(), envelope)
	log := zerowrap.FromCtx(r.Context())

	status := http.StatusOK
	if summary.Failed > 0 {
		status = http.StatusServiceUnavailable
		log.Warn().
			Int(zerowrap.FieldCount, len(envelope.Events)).
			Int("failed", summary.Failed).
			Msg("notification partially failed, asking for redelivery")
	} else {
		log.Debug().
			Int(zerowrap.FieldCount, len(envelope.Events)).
			Int("processed", summary.Processed).
			Int("rejected", summary.Rejected).
			Msg("notification handled")
	}

	h.sendJSON(w, status, dto.IngestResponse{
		Processed: summary.Processed,
		Skipped:   summary.Skipped,
		Rejected:  summary.Rejected,
		Failed:    summary.Failed,
	})
}

func acceptedContentType(header string) bool {
	if header == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(header)
	if err != nil {
		return false
	}
	switch mediaType {
	case domain.NotificationMediaType, "application/json":
		return true
	}
	return false
}

func (h *Handler) sendJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (h *Handler) sendError(w http.ResponseWriter, status int, msg string) {
	h.sendJSON(w, status, dto.ErrorResponse{Error: msg})
}

// drain discards what is left of a request body.
func drain(r io.Reader) {
	_, _ = io.Copy(io.Discard, r)
}
