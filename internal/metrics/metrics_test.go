package metrics_test

import (
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/shaharia-lab/taskcore/internal/metrics"
)

func TestObserve_IncrementsCorrectCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.Observe("job_scheduler.job.finished")
	m.Observe("job_scheduler.job.failed")
	m.Observe("job_scheduler.job.failed")
	m.Observe("job_scheduler.job.canceled")
	m.Observe("unknown.event")

	assert.Equal(t, float64(1), counterValue(t, m.JobsCompleted))
	assert.Equal(t, float64(2), counterValue(t, m.JobsFailed))
	assert.Equal(t, float64(1), counterValue(t, m.JobsCanceled))
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var metric dto.Metric
	require.NoError(t, c.Write(&metric))
	return metric.GetCounter().GetValue()
}
