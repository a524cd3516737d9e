package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"custodia/internal/geofence"
	"custodia/internal/guardian"
	"custodia/internal/notification/push"
	"custodia/internal/platform/metrics"
	"custodia/pkg/domain"
	dErrors "custodia/pkg/domain-errors"
)

// DeliveryResult reports what one dispatch actually did. The persisted record
// stands regardless of push outcome.
type DeliveryResult struct {
	Record Record
	Pushed bool
}

// FanOutResult reports a distress fan-out. Sent is zero when the child has no
// linked guardians; that is a distinct, observable outcome, not an error.
type FanOutResult struct {
	Sent int
}

// Dispatcher turns domain events into persisted notification records and
// outbound push requests. It runs off the realtime path: callers invoke it
// only after the broadcast has already gone out.
type Dispatcher struct {
	store     Store
	guardians guardian.Store
	sender    push.Sender
	logger    *slog.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

type DispatcherOption func(*Dispatcher)

// WithClock sets the clock used to stamp records. For tests.
func WithClock(now func() time.Time) DispatcherOption {
	return func(d *Dispatcher) {
		if now != nil {
			d.now = now
		}
	}
}

func NewDispatcher(store Store, guardians guardian.Store, sender push.Sender, logger *slog.Logger, m *metrics.Metrics, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		store:     store,
		guardians: guardians,
		sender:    sender,
		logger:    logger,
		metrics:   m,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch persists a notification record and attempts a push. The two
// actions are independent: a push failure never unwinds the record, and a
// guardian without a registered push address simply gets no push.
func (d *Dispatcher) Dispatch(ctx context.Context, recipient domain.GuardianID, title, body string, payload Payload) (DeliveryResult, error) {
	rec := Record{
		ID:                  domain.NewNotificationID(),
		RecipientGuardianID: recipient,
		Message:             body,
		Category:            payload.Category(),
		CreatedAt:           d.now(),
	}
	if err := d.store.Create(ctx, rec); err != nil {
		return DeliveryResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "persist notification")
	}
	d.metrics.NotificationsDispatched.WithLabelValues(string(rec.Category)).Inc()

	result := DeliveryResult{Record: rec}

	addr, ok, err := d.guardians.PushAddress(ctx, recipient)
	if err != nil {
		d.logger.ErrorContext(ctx, "push address lookup failed",
			"guardian_id", recipient.String(),
			"error", err,
		)
		return result, nil
	}
	if !ok {
		return result, nil
	}

	d.metrics.PushAttempts.Inc()
	err = d.sender.Send(ctx, addr, push.Message{
		Title: title,
		Body:  body,
		Data:  payload.PushData(),
	})
	switch {
	case err == nil:
		result.Pushed = true
	case errors.Is(err, push.ErrNotRegistered):
		// Permanent: clear the stored address so future dispatches skip
		// the push step until re-registration.
		d.metrics.PushFailures.WithLabelValues("unregistered").Inc()
		d.logger.WarnContext(ctx, "push address no longer registered, clearing",
			"guardian_id", recipient.String(),
		)
		if clearErr := d.guardians.ClearPushAddress(ctx, recipient, addr); clearErr != nil {
			d.logger.ErrorContext(ctx, "clear push address failed",
				"guardian_id", recipient.String(),
				"error", clearErr,
			)
		}
	default:
		// Transient: the record stands, retry policy belongs to the
		// transport.
		d.metrics.PushFailures.WithLabelValues("transient").Inc()
		d.logger.WarnContext(ctx, "push delivery failed",
			"guardian_id", recipient.String(),
			"error", err,
		)
	}
	return result, nil
}

// DispatchTransition fans a zone transition out to every guardian linked to
// the child.
func (d *Dispatcher) DispatchTransition(ctx context.Context, ev geofence.TransitionEvent) error {
	guardians, err := d.guardians.GuardiansOf(ctx, ev.ChildID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "resolve guardians for transition")
	}

	payload := ZoneTransitionPayload{
		Kind:     ev.Kind,
		ChildID:  ev.ChildID,
		ZoneID:   ev.ZoneID,
		ZoneName: ev.ZoneName,
	}
	title, body := transitionText(ev)

	var firstErr error
	for _, g := range guardians {
		if _, err := d.Dispatch(ctx, g, title, body, payload); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// DispatchDistress fans a distress signal out to every guardian linked to the
// child. Returns the number of notifications dispatched; zero recipients is a
// success with Sent == 0.
func (d *Dispatcher) DispatchDistress(ctx context.Context, childID domain.ChildID, payload DistressPayload) (FanOutResult, error) {
	guardians, err := d.guardians.GuardiansOf(ctx, childID)
	if err != nil {
		return FanOutResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "resolve guardians for distress")
	}

	title := "Distress alert"
	body := "A distress signal was received"
	if payload.LocationKnown {
		body = fmt.Sprintf("A distress signal was received at %.5f, %.5f", payload.Lat, payload.Lng)
	}

	var res FanOutResult
	var firstErr error
	for _, g := range guardians {
		if _, err := d.Dispatch(ctx, g, title, body, payload); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		res.Sent++
	}
	return res, firstErr
}

func transitionText(ev geofence.TransitionEvent) (title, body string) {
	name := ev.ZoneName
	if name == "" {
		name = ev.ZoneID.String()
	}
	if ev.Kind == geofence.TransitionEnter {
		return "Safe zone entered", fmt.Sprintf("The child entered %q", name)
	}
	return "Safe zone exited", fmt.Sprintf("The child left %q", name)
}
