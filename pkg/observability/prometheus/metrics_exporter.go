// Package prometheus exports scheduler events as Prometheus collectors.
package prometheus

import (
	"errors"
	"fmt"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/hackebrot/go-green-scheduler/pkg/scheduler"
)

// ExporterOptions controls collector configuration.
type ExporterOptions struct {
	// TickBuckets are the histogram buckets for per-task tick counts.
	TickBuckets []float64
}

// DefaultTickBuckets covers a few ticks up to a few seconds at 1ms ticks.
var DefaultTickBuckets = prom.ExponentialBuckets(1, 4, 8)

// MetricsExporter adapts scheduler.Metrics to Prometheus collectors.
type MetricsExporter struct {
	tasksCreated    *prom.CounterVec
	tasksExited     *prom.CounterVec
	contextSwitches prom.Counter
	preemptions     prom.Counter
	taskPanics      prom.Counter
	queueDepth      *prom.GaugeVec
	clockTicks      prom.Gauge
	processorTicks  *prom.HistogramVec
	taskActivations *prom.HistogramVec
}

var _ scheduler.Metrics = (*MetricsExporter)(nil)

// NewMetricsExporter creates and registers the scheduler collectors.
func NewMetricsExporter(namespace string, reg prom.Registerer, opts ExporterOptions) (*MetricsExporter, error) {
	if namespace == "" {
		namespace = "ppos"
	}
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	buckets := opts.TickBuckets
	if len(buckets) == 0 {
		buckets = DefaultTickBuckets
	}

	createdVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "tasks_created_total",
		Help:      "Total number of tasks created.",
	}, []string{"class"})
	exitedVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "tasks_exited_total",
		Help:      "Total number of tasks exited.",
	}, []string{"class"})
	switches := prom.NewCounter(prom.CounterOpts{
		Namespace: namespace,
		Name:      "context_switches_total",
		Help:      "Total number of context switches.",
	})
	preemptions := prom.NewCounter(prom.CounterOpts{
		Namespace: namespace,
		Name:      "preemptions_total",
		Help:      "Total number of quantum expiries that forced a yield.",
	})
	panics := prom.NewCounter(prom.CounterOpts{
		Namespace: namespace,
		Name:      "task_panics_total",
		Help:      "Total number of task bodies that panicked.",
	})
	depthVec := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "queue_depth",
		Help:      "Current queue depth.",
	}, []string{"queue"})
	clock := prom.NewGauge(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "clock_ticks",
		Help:      "Logical clock in ticks.",
	})
	processorVec := prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "task_processor_ticks",
		Help:      "Ticks a task held the processor, observed at exit.",
		Buckets:   buckets,
	}, []string{"class"})
	activationsVec := prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "task_activations",
		Help:      "Times a task was dispatched, observed at exit.",
		Buckets:   buckets,
	}, []string{"class"})

	var err error
	if createdVec, err = registerCollector(reg, createdVec); err != nil {
		return nil, err
	}
	if exitedVec, err = registerCollector(reg, exitedVec); err != nil {
		return nil, err
	}
	if switches, err = registerCollector(reg, switches); err != nil {
		return nil, err
	}
	if preemptions, err = registerCollector(reg, preemptions); err != nil {
		return nil, err
	}
	if panics, err = registerCollector(reg, panics); err != nil {
		return nil, err
	}
	if depthVec, err = registerCollector(reg, depthVec); err != nil {
		return nil, err
	}
	if clock, err = registerCollector(reg, clock); err != nil {
		return nil, err
	}
	if processorVec, err = registerCollector(reg, processorVec); err != nil {
		return nil, err
	}
	if activationsVec, err = registerCollector(reg, activationsVec); err != nil {
		return nil, err
	}

	return &MetricsExporter{
		tasksCreated:    createdVec,
		tasksExited:     exitedVec,
		contextSwitches: switches,
		preemptions:     preemptions,
		taskPanics:      panics,
		queueDepth:      depthVec,
		clockTicks:      clock,
		processorTicks:  processorVec,
		taskActivations: activationsVec,
	}, nil
}

// RecordTaskCreated counts a created task.
func (m *MetricsExporter) RecordTaskCreated(class scheduler.Class) {
	if m == nil {
		return
	}
	m.tasksCreated.WithLabelValues(class.String()).Inc()
}

// RecordTaskExit counts an exited task and observes its tick statistics.
func (m *MetricsExporter) RecordTaskExit(stats scheduler.TaskStats) {
	if m == nil {
		return
	}
	class := stats.Class.String()
	m.tasksExited.WithLabelValues(class).Inc()
	m.processorTicks.WithLabelValues(class).Observe(float64(stats.ProcessorTicks))
	m.taskActivations.WithLabelValues(class).Observe(float64(stats.Activations))
}

// RecordContextSwitch counts a context switch.
func (m *MetricsExporter) RecordContextSwitch() {
	if m == nil {
		return
	}
	m.contextSwitches.Inc()
}

// RecordPreemption counts a preemption.
func (m *MetricsExporter) RecordPreemption() {
	if m == nil {
		return
	}
	m.preemptions.Inc()
}

// RecordTaskPanic counts a task panic.
func (m *MetricsExporter) RecordTaskPanic(id scheduler.TaskID, value any) {
	if m == nil {
		return
	}
	m.taskPanics.Inc()
}

// RecordQueueDepth records queue depth.
func (m *MetricsExporter) RecordQueueDepth(queue string, depth int) {
	if m == nil {
		return
	}
	m.queueDepth.WithLabelValues(normalizeLabel(queue, "unknown")).Set(float64(depth))
}

// RecordClock records the logical clock.
func (m *MetricsExporter) RecordClock(ticks uint64) {
	if m == nil {
		return
	}
	m.clockTicks.Set(float64(ticks))
}

// normalizeLabel returns fallback for an empty label value.
func normalizeLabel(v string, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// registerCollector registers collector, or returns the collector already
// registered in its place.
func registerCollector[T prom.Collector](reg prom.Registerer, collector T) (T, error) {
	err := reg.Register(collector)
	if err == nil {
		return collector, nil
	}

	var alreadyRegisteredErr prom.AlreadyRegisteredError
	if errors.As(err, &alreadyRegisteredErr) {
		existing, ok := alreadyRegisteredErr.ExistingCollector.(T)
		if !ok {
			return collector, fmt.Errorf("collector type mismatch for %T", collector)
		}
		return existing, nil
	}

	return collector, err
}
