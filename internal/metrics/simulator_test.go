package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestSimulator(t *testing.T) {
	rq := require.New(t)

	reg := prometheus.NewRegistry()
	m := NewSimulator(reg)

	m.RecordTick(150 * time.Millisecond)
	m.RecordTick(250 * time.Millisecond)
	m.RecordAppendError("apple")
	m.RecordRetention("apple", 3)
	m.RecordRetention("apple", 0)
	m.SetCurrentPrice("apple", 5012.5)
	m.RecordPublishError()

	rq.InDelta(2, testutil.ToFloat64(m.TicksTotal), 0)
	rq.InDelta(1, testutil.ToFloat64(m.AppendErrorsTotal.WithLabelValues("apple")), 0)
	rq.InDelta(3, testutil.ToFloat64(m.RetentionDeleted.WithLabelValues("apple")), 0)
	rq.InDelta(5012.5, testutil.ToFloat64(m.CurrentPrice.WithLabelValues("apple")), 0)
	rq.InDelta(1, testutil.ToFloat64(m.PublishErrorsTotal), 0)
	rq.Equal(1, testutil.CollectAndCount(m.TickDuration))

	families, err := reg.Gather()
	rq.NoError(err)
	rq.Len(families, 6)
}

func TestSimulator_SeparateRegistries(t *testing.T) {
	require.NotPanics(t, func() {
		NewSimulator(prometheus.NewRegistry())
		NewSimulator(prometheus.NewRegistry())
	})
}
