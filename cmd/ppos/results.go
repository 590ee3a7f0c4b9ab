package main

import (
	"log/slog"
	"slices"

	"github.com/hackebrot/go-green-scheduler/pkg/scheduler"
)

// summary holds order statistics of one per-task measurement.
type summary struct {
	Count  int
	Mean   uint64
	Median uint64
	Min    uint64
	Max    uint64
}

// summarize computes the summary of values. It returns the zero summary for
// no values.
func summarize(values []uint64) summary {
	if len(values) == 0 {
		return summary{}
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	var total uint64
	for _, v := range sorted {
		total += v
	}
	return summary{
		Count:  len(sorted),
		Mean:   total / uint64(len(sorted)),
		Median: sorted[len(sorted)/2],
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
	}
}

// processResults logs failed tasks and computes summary statistics for the
// rest. A task failed if it never exited or its body panicked.
func processResults(sys *scheduler.System, ids []scheduler.TaskID) error {
	var processor, activations []uint64
	for _, id := range ids {
		st, err := sys.Stats(id)
		if err != nil {
			return err
		}
		if !st.Exited || st.ExitCode == scheduler.ExitPanic {
			slog.Error(
				"task failed",
				"task_id", st.ID,
				"status", st.Status.String(),
				"exit_code", st.ExitCode,
				"processor_ticks", st.ProcessorTicks,
			)
			continue
		}
		processor = append(processor, st.ProcessorTicks)
		activations = append(activations, st.Activations)
	}

	if len(processor) == 0 {
		return nil
	}
	p := summarize(processor)
	a := summarize(activations)
	slog.Info(
		"task execution summary",
		"count", p.Count,
		"mean_processor_ticks", p.Mean,
		"median_processor_ticks", p.Median,
		"min_processor_ticks", p.Min,
		"max_processor_ticks", p.Max,
		"mean_activations", a.Mean,
		"median_activations", a.Median,
		"min_activations", a.Min,
		"max_activations", a.Max,
		"clock", sys.Clock(),
	)
	return nil
}
