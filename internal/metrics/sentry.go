package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
)

// HTTP status code threshold for considering a request successful
const successStatusCodeThreshold = http.StatusBadRequest

// SentryMetrics records spans on the request's Sentry transaction
type SentryMetrics struct {
	enabled bool
}

// NewSentryMetrics creates a new Sentry metrics client
func NewSentryMetrics() *SentryMetrics {
	return &SentryMetrics{enabled: true}
}

// RecordAPIRequest records API request metrics
func (m *SentryMetrics) RecordAPIRequest(ctx context.Context, endpoint string, statusCode int, duration time.Duration) {
	if !m.enabled {
		return
	}

	span := sentry.StartSpan(ctx, "api.request")
	defer span.Finish()

	success := statusCode < successStatusCodeThreshold
	span.SetTag("endpoint", endpoint)
	span.SetTag("status_code", fmt.Sprintf("%d", statusCode))
	span.SetTag("success", fmt.Sprintf("%t", success))
	span.SetData("duration_ms", duration.Milliseconds())
	span.SetData("status_code", statusCode)
	if success {
		span.Status = sentry.SpanStatusOK
	} else {
		span.Status = sentry.SpanStatusInternalError
	}
	span.Description = fmt.Sprintf("API Request: %s", endpoint)
}

// RecordRhythmGeneration tags the current transaction with the call's size and adds
// a child span for it
func (m *SentryMetrics) RecordRhythmGeneration(ctx context.Context, s RhythmSample) {
	if !m.enabled {
		return
	}

	if transaction := sentry.TransactionFromContext(ctx); transaction != nil {
		transaction.SetTag("rhythm.source", s.Source)
		transaction.SetData("rhythm.segments", s.Segments)
		transaction.SetData("rhythm.slots", s.SlotsConsumed)
	}

	span := sentry.StartSpan(ctx, "rhythm.generate")
	defer span.Finish()

	span.SetTag("source", s.Source)
	span.SetTag("success", fmt.Sprintf("%t", s.Success))
	span.SetData("segments", s.Segments)
	span.SetData("slots_consumed", s.SlotsConsumed)
	span.SetData("leaves", s.Leaves)
	span.SetData("duration_ms", s.Duration.Milliseconds())
	if s.Success {
		span.Status = sentry.SpanStatusOK
	} else {
		span.Status = sentry.SpanStatusInvalidArgument
	}
	span.Description = fmt.Sprintf("Rhythm: %d segments", s.Segments)
}
