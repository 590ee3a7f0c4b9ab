package prometheus

import (
	"io"
	"log/slog"
	"testing"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackebrot/go-green-scheduler/pkg/scheduler"
)

func TestMetricsExporter_RecordMethods(t *testing.T) {
	reg := prom.NewRegistry()
	exporter, err := NewMetricsExporter("ppos", reg, ExporterOptions{})
	require.NoError(t, err)

	exporter.RecordTaskCreated(scheduler.ClassUser)
	exporter.RecordTaskCreated(scheduler.ClassUser)
	exporter.RecordTaskExit(scheduler.TaskStats{Class: scheduler.ClassUser, ProcessorTicks: 12, Activations: 3})
	exporter.RecordContextSwitch()
	exporter.RecordPreemption()
	exporter.RecordTaskPanic(2, "boom")
	exporter.RecordQueueDepth("ready", 7)
	exporter.RecordQueueDepth("", 1)
	exporter.RecordClock(42)

	assert.Equal(t, 2.0, testutil.ToFloat64(exporter.tasksCreated.WithLabelValues("user")))
	assert.Equal(t, 1.0, testutil.ToFloat64(exporter.tasksExited.WithLabelValues("user")))
	assert.Equal(t, 1.0, testutil.ToFloat64(exporter.contextSwitches))
	assert.Equal(t, 1.0, testutil.ToFloat64(exporter.preemptions))
	assert.Equal(t, 1.0, testutil.ToFloat64(exporter.taskPanics))
	assert.Equal(t, 7.0, testutil.ToFloat64(exporter.queueDepth.WithLabelValues("ready")))
	assert.Equal(t, 1.0, testutil.ToFloat64(exporter.queueDepth.WithLabelValues("unknown")))
	assert.Equal(t, 42.0, testutil.ToFloat64(exporter.clockTicks))

	count, err := histogramSampleCount(exporter.processorTicks.WithLabelValues("user"))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}

func TestMetricsExporter_AlreadyRegisteredReuse(t *testing.T) {
	reg := prom.NewRegistry()
	first, err := NewMetricsExporter("ppos", reg, ExporterOptions{})
	require.NoError(t, err)
	second, err := NewMetricsExporter("ppos", reg, ExporterOptions{})
	require.NoError(t, err)

	first.RecordPreemption()
	second.RecordPreemption()

	assert.Equal(t, 2.0, testutil.ToFloat64(first.preemptions))
}

func TestMetricsExporter_NilReceiver(t *testing.T) {
	var exporter *MetricsExporter
	assert.NotPanics(t, func() {
		exporter.RecordTaskCreated(scheduler.ClassSystem)
		exporter.RecordTaskExit(scheduler.TaskStats{})
		exporter.RecordContextSwitch()
		exporter.RecordPreemption()
		exporter.RecordTaskPanic(0, nil)
		exporter.RecordQueueDepth("ready", 1)
		exporter.RecordClock(1)
	})
}

func TestMetricsExporter_WiredIntoSystem(t *testing.T) {
	reg := prom.NewRegistry()
	exporter, err := NewMetricsExporter("ppos", reg, ExporterOptions{})
	require.NoError(t, err)

	s, err := scheduler.New(
		scheduler.WithTickSource(nil),
		scheduler.WithMetrics(exporter),
		scheduler.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := s.Create(func(any) {
			s.Sleep(2)
			s.Yield()
		}, nil)
		require.NoError(t, err)
	}
	s.Exit(0)

	assert.Equal(t, 3.0, testutil.ToFloat64(exporter.tasksCreated.WithLabelValues("user")))
	assert.Equal(t, 1.0, testutil.ToFloat64(exporter.tasksCreated.WithLabelValues("system")))
	// three user tasks plus the bootstrap task
	assert.Equal(t, 4.0, testutil.ToFloat64(exporter.tasksExited.WithLabelValues("user")))
	assert.Equal(t, 1.0, testutil.ToFloat64(exporter.tasksExited.WithLabelValues("system")))
	assert.Positive(t, testutil.ToFloat64(exporter.contextSwitches))
	assert.GreaterOrEqual(t, testutil.ToFloat64(exporter.clockTicks), 2.0)

	n, err := testutil.GatherAndCount(reg, "ppos_queue_depth")
	require.NoError(t, err)
	assert.Equal(t, 2, n, "ready and sleeping")
}

func histogramSampleCount(observer prom.Observer) (uint64, error) {
	collector, ok := observer.(prom.Collector)
	if !ok {
		return 0, nil
	}

	metricCh := make(chan prom.Metric, 1)
	collector.Collect(metricCh)
	close(metricCh)
	for metric := range metricCh {
		msg := &dto.Metric{}
		if err := metric.Write(msg); err != nil {
			return 0, err
		}
		if msg.Histogram != nil {
			return msg.Histogram.GetSampleCount(), nil
		}
	}
	return 0, nil
}
