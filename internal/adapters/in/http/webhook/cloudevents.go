package webhook

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/bnema/zerowrap"
	cehttp "github.com/cloudevents/sdk-go/v2/protocol/http"

	"github.com/bnema/dockyard/internal/domain"
)

// handleCloudEvent accepts a CloudEvent, in binary or structured mode,
// whose data is a notification envelope or a single notification event.
func (h *Handler) handleCloudEvent(w http.ResponseWriter, r *http.Request) {
	log := zerowrap.FromCtx(r.Context())
	defer drain(r.Body)

	event, err := cehttp.NewEventFromHTTPRequest(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.sendError(w, http.StatusRequestEntityTooLarge, "body too large")
			return
		}
		log.Warn().Err(err).Msg("invalid cloud event")
		h.sendError(w, http.StatusBadRequest, "invalid cloud event")
		return
	}

	ctx := zerowrap.CtxWithFields(r.Context(), map[string]any{
		"ce_id":     event.ID(),
		"ce_type":   event.Type(),
		"ce_source": event.Source(),
	})
	log = zerowrap.FromCtx(ctx)

	envelope, err := notificationFromData(event.Data())
	if err != nil {
		log.Warn().Err(err).Msg("cloud event data is not a registry notification")
		h.sendError(w, http.StatusBadRequest, "invalid cloud event data")
		return
	}

	h.dispatch(w, r.WithContext(ctx), envelope)
}

// notificationFromData decodes either {"events": [...]} or a bare event.
func notificationFromData(data []byte) (domain.Notification, error) {
	var shape struct {
		Events json.RawMessage `json:"events"`
	}
	if err := json.Unmarshal(data, &shape); err != nil {
		return domain.Notification{}, err
	}

	if shape.Events != nil {
		var envelope domain.Notification
		if err := json.Unmarshal(data, &envelope); err != nil {
			return domain.Notification{}, err
		}
		return envelope, nil
	}

	var ev domain.NotificationEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return domain.Notification{}, err
	}
	if ev.Action == "" {
		return domain.Notification{}, errors.New("event has no action")
	}
	return domain.Notification{Events: []domain.NotificationEvent{ev}}, nil
}
