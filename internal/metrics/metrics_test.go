package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_DisabledOutsideProduction(t *testing.T) {
	client, err := NewClient(context.Background(), "development", "")
	require.NoError(t, err)
	assert.False(t, client.Enabled())
	assert.Equal(t, defaultNamespace, client.namespace)

	assert.NotPanics(t, func() {
		client.RecordAPIRequest("/api/v1/rhythm", 200, time.Millisecond)
		client.RecordRhythmGeneration(RhythmSample{Source: "json", Segments: 3, Success: true})
	})
}

func TestNilClientIsDisabled(t *testing.T) {
	var client *Client
	assert.False(t, client.Enabled())
	assert.NotPanics(t, func() {
		client.RecordRhythmGeneration(RhythmSample{})
	})
}

func TestSentryMetricsWithoutClient(t *testing.T) {
	m := NewSentryMetrics()
	assert.NotPanics(t, func() {
		m.RecordAPIRequest(context.Background(), "/health", 200, time.Millisecond)
		m.RecordRhythmGeneration(context.Background(), RhythmSample{Source: "dsl", Success: false})
	})
}
