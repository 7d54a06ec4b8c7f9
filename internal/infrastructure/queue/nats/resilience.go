package nats

import (
	"context"
	"errors"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/file-organizer/internal/core/domain"
	"github.com/kirillkom/file-organizer/internal/infrastructure/resilience"
)

// Only transient link errors are retried. Rejected messages and a closed
// connection never count toward opening the breaker.
var (
	rejectedMessageErrors = []error{
		nats.ErrMaxPayload,
		nats.ErrBadSubject,
		nats.ErrHeadersNotSupported,
		nats.ErrInvalidMsg,
	}
	closedConnectionErrors = []error{
		nats.ErrConnectionClosed,
		nats.ErrConnectionDraining,
	}
	transientLinkErrors = []error{
		nats.ErrNoServers,
		nats.ErrTimeout,
		nats.ErrDisconnected,
		nats.ErrConnectionReconnecting,
		nats.ErrReconnectBufExceeded,
		nats.ErrStaleConnection,
	}
)

func classifyNATSError(err error) resilience.ErrorClassification {
	switch {
	case err == nil:
		return resilience.ErrorClassification{}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return resilience.ErrorClassification{}
	case isAny(err, rejectedMessageErrors), isAny(err, closedConnectionErrors):
		return resilience.ErrorClassification{}
	case resilience.IsCircuitOpen(err), isAny(err, transientLinkErrors):
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	default:
		return resilience.ErrorClassification{RecordFailure: true}
	}
}

// wrapTemporaryIfNeeded marks retryable failures as domain.ErrTemporary and a
// rejected message as domain.ErrInvalidInput.
func wrapTemporaryIfNeeded(err error) error {
	if err == nil {
		return nil
	}
	if domain.IsKind(err, domain.ErrTemporary) || domain.IsKind(err, domain.ErrInvalidInput) {
		return err
	}
	if isAny(err, rejectedMessageErrors) {
		return domain.WrapError(domain.ErrInvalidInput, "nats publish", err)
	}
	if classifyNATSError(err).Retryable {
		return domain.WrapError(domain.ErrTemporary, "nats publish", err)
	}
	return err
}

func isAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
