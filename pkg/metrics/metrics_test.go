package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheus_Observations(t *testing.T) {
	reg := prometheus.NewRegistry()
	p, err := NewPrometheus(reg)
	require.NoError(t, err)

	p.ObserveRequest("predict", 200, 120*time.Millisecond)
	p.ObserveRequest("predict", 400, 10*time.Millisecond)
	p.ObserveRequest("areas", 0, time.Millisecond)
	p.ObserveRequest("areas", 599, time.Millisecond)
	p.ObserveSubmission(OutcomeSuccess)
	p.ObserveSubmission(OutcomeTimeout)
	p.ObserveSubmission(OutcomeTimeout)
	p.ObserveReferenceLoad("cities", nil)
	p.ObserveReferenceLoad("areas", errors.New("down"))

	assert.Equal(t, 1.0, testutil.ToFloat64(p.requests.WithLabelValues("predict", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.requests.WithLabelValues("predict", "400")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.requests.WithLabelValues("areas", "transport_error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.requests.WithLabelValues("areas", "599")))
	assert.Equal(t, 2.0, testutil.ToFloat64(p.submissions.WithLabelValues(OutcomeTimeout)))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.refLoads.WithLabelValues("areas", "error")))
	assert.Equal(t, 2, testutil.CollectAndCount(p.latency))
}

func TestNewPrometheus_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewPrometheus(reg)
	require.NoError(t, err)
	_, err = NewPrometheus(reg)
	assert.Error(t, err)
}
