package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCronJobMetricsRecordsRuns(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)

	m.JobFinished("refund-dispatch", 250*time.Millisecond, nil)
	m.JobFinished("refund-dispatch", time.Second, errors.New("gateway down"))

	require.EqualValues(t, 1, testutil.ToFloat64(m.runs.WithLabelValues("refund-dispatch", "success")))
	require.EqualValues(t, 1, testutil.ToFloat64(m.runs.WithLabelValues("refund-dispatch", "failure")))
	require.Positive(t, testutil.ToFloat64(m.lastSuccess.WithLabelValues("refund-dispatch")))
	require.Equal(t, 1, testutil.CollectAndCount(m.duration, "storefront_cron_job_duration_seconds"))
}

func TestCronJobMetricsNilIsNoop(t *testing.T) {
	var m *CronJobMetrics
	m.JobFinished("x", time.Second, nil)
	require.Nil(t, NewCronJobMetrics(nil))
}
