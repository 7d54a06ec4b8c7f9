package ollama

import (
	"context"
	"errors"
	"net/http"

	"github.com/kirillkom/file-organizer/internal/core/domain"
	"github.com/kirillkom/file-organizer/internal/infrastructure/resilience"
)

func classifyOllamaError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{
			Retryable:     false,
			RecordFailure: false,
		}
	}

	var svcErr *domain.ClassificationServiceError
	if !errors.As(err, &svcErr) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
	}

	switch {
	case errors.Is(svcErr.Kind, domain.ErrServiceUnreachable):
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	case errors.Is(svcErr.Kind, domain.ErrBadStatus):
		if isRetryableHTTPStatus(svcErr.StatusCode) {
			return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
		}
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	default:
		return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
	}
}

// asServiceError guarantees callers always see a ClassificationServiceError.
// An open breaker means the service is treated as unreachable.
func asServiceError(operation string, err error) error {
	var svcErr *domain.ClassificationServiceError
	if errors.As(err, &svcErr) {
		if classifyOllamaError(err).Retryable {
			return domain.WrapError(domain.ErrTemporary, "ollama "+operation, err)
		}
		return err
	}
	if resilience.IsCircuitOpen(err) {
		return domain.WrapError(domain.ErrTemporary, "ollama "+operation, unreachable(operation, err))
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return unreachable(operation, err)
	}
	return domain.NewClassificationServiceError(domain.ErrMalformedResponse, operation, err)
}

func isRetryableHTTPStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout, http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
