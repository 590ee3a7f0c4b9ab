package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hackebrot/go-fibonacci"
	"github.com/urfave/cli/v2"

	"github.com/hackebrot/go-green-scheduler/internal/fib"
	"github.com/hackebrot/go-green-scheduler/pkg/scheduler"
)

// exitCanceled is the exit code of a task that stopped early on shutdown.
const exitCanceled = 2

// scenario creates tasks from the bootstrap task and returns the ids whose
// results should be summarized. The caller exits the bootstrap task.
type scenario func(ctx context.Context, sys *scheduler.System) ([]scheduler.TaskID, error)

// priorityCommand runs tasks of different static priorities.
func priorityCommand() *cli.Command {
	return &cli.Command{
		Name:  "priority",
		Usage: "tasks with different static priorities that yield repeatedly",
		Flags: []cli.Flag{
			&cli.IntSliceFlag{
				Name:  "priorities",
				Value: cli.NewIntSlice(0, 2, 4, 6, 8),
				Usage: "static priority of each task",
			},
			&cli.IntFlag{
				Name:  "yields",
				Value: 10,
				Usage: "times each task yields before exiting",
			},
		},
		Action: scenarioAction(func(c *cli.Context) scenario {
			return priorityScenario(c.IntSlice("priorities"), c.Int("yields"))
		}),
	}
}

// priorityScenario creates one yielding task per priority in prios.
func priorityScenario(prios []int, yields int) scenario {
	return func(_ context.Context, sys *scheduler.System) ([]scheduler.TaskID, error) {
		body := func(arg any) {
			name := arg.(string)
			for i := 0; i < yields; i++ {
				slog.Info("task running", "task_name", name, "task_id", sys.ID(), "iteration", i)
				sys.Yield()
			}
		}

		ids := make([]scheduler.TaskID, 0, len(prios))
		for _, p := range prios {
			id, err := sys.Create(body, fmt.Sprintf("prio%d", p))
			if err != nil {
				return ids, fmt.Errorf("create task: %w", err)
			}
			if err := sys.SetPriority(id, p); err != nil {
				return ids, err
			}
			ids = append(ids, id)
		}
		return ids, nil
	}
}

// preemptCommand runs CPU-bound tasks that never yield on their own.
func preemptCommand() *cli.Command {
	return &cli.Command{
		Name:  "preempt",
		Usage: "CPU-bound tasks that never yield and are preempted when their quantum expires",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "tasks", Value: 3, Usage: "number of tasks"},
			&cli.IntFlag{Name: "iterations", Value: 20_000_000, Usage: "loop iterations per task"},
			&cli.IntFlag{Name: "checkpoint-every", Value: 1000, Usage: "iterations between checkpoints"},
		},
		Action: scenarioAction(func(c *cli.Context) scenario {
			return preemptScenario(c.Int("tasks"), c.Int("iterations"), c.Int("checkpoint-every"))
		}),
	}
}

// preemptScenario creates tasks that spin and call Checkpoint every
// every iterations.
func preemptScenario(tasks, iterations, every int) scenario {
	if every <= 0 {
		every = 1
	}
	return func(ctx context.Context, sys *scheduler.System) ([]scheduler.TaskID, error) {
		body := func(arg any) {
			name := arg.(string)
			var sum uint64
			for i := 0; i < iterations; i++ {
				sum += uint64(i) * 2654435761
				if i%every != 0 {
					continue
				}
				if ctx.Err() != nil {
					slog.Warn("task canceled", "task_name", name, "task_id", sys.ID(), "iteration", i)
					sys.Exit(exitCanceled)
				}
				sys.Checkpoint()
			}
			slog.Info("task finished", "task_name", name, "task_id", sys.ID(), "checksum", sum)
		}

		ids := make([]scheduler.TaskID, 0, tasks)
		for i := 0; i < tasks; i++ {
			id, err := sys.Create(body, fmt.Sprintf("spin%d", i))
			if err != nil {
				return ids, fmt.Errorf("create task: %w", err)
			}
			ids = append(ids, id)
		}
		return ids, nil
	}
}

// sleepCommand runs tasks that sleep for different durations.
func sleepCommand() *cli.Command {
	return &cli.Command{
		Name:  "sleep",
		Usage: "tasks that sleep for different numbers of ticks",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "tasks", Value: 4, Usage: "number of tasks"},
			&cli.IntFlag{Name: "rounds", Value: 3, Usage: "sleeps per task"},
			&cli.IntFlag{Name: "base-ticks", Value: 100, Usage: "task i sleeps (i+1)*base-ticks each round"},
		},
		Action: scenarioAction(func(c *cli.Context) scenario {
			return sleepScenario(c.Int("tasks"), c.Int("rounds"), c.Int("base-ticks"))
		}),
	}
}

// sleepScenario creates tasks that sleep rounds times, task i for
// (i+1)*base ticks.
func sleepScenario(tasks, rounds, base int) scenario {
	return func(_ context.Context, sys *scheduler.System) ([]scheduler.TaskID, error) {
		body := func(arg any) {
			d := arg.(int)
			for r := 0; r < rounds; r++ {
				sys.Sleep(d)
				slog.Info("task woke", "task_id", sys.ID(), "sleep_ticks", d, "round", r, "clock", sys.Clock())
			}
		}

		ids := make([]scheduler.TaskID, 0, tasks)
		for i := 0; i < tasks; i++ {
			id, err := sys.Create(body, (i+1)*base)
			if err != nil {
				return ids, fmt.Errorf("create task: %w", err)
			}
			ids = append(ids, id)
		}
		return ids, nil
	}
}

// joinCommand runs workers whose exit codes are collected with Wait.
func joinCommand() *cli.Command {
	return &cli.Command{
		Name:  "join",
		Usage: "tasks that exit with codes collected by waiting tasks",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "tasks", Value: 5, Usage: "number of worker tasks"},
		},
		Action: scenarioAction(func(c *cli.Context) scenario {
			return joinScenario(c.Int("tasks"))
		}),
	}
}

// joinScenario creates workers that exit with distinct codes plus a watcher
// joined to the last worker, then waits on every worker from the bootstrap task.
func joinScenario(tasks int) scenario {
	return func(_ context.Context, sys *scheduler.System) ([]scheduler.TaskID, error) {
		worker := func(arg any) {
			n := arg.(int)
			for i := 0; i < n*3; i++ {
				sys.Yield()
			}
			sys.Exit(n * 10)
		}

		ids := make([]scheduler.TaskID, 0, tasks+1)
		for i := 0; i < tasks; i++ {
			id, err := sys.Create(worker, i)
			if err != nil {
				return ids, fmt.Errorf("create task: %w", err)
			}
			ids = append(ids, id)
		}
		if len(ids) == 0 {
			return ids, nil
		}

		last := ids[len(ids)-1]
		watcher, err := sys.Create(func(any) {
			code, err := sys.Wait(last)
			if err != nil {
				slog.Error("wait failed", "task_id", sys.ID(), "target_id", last, "error", err)
				return
			}
			slog.Info("task joined", "task_id", sys.ID(), "target_id", last, "exit_code", code)
		}, nil)
		if err != nil {
			return ids, fmt.Errorf("create task: %w", err)
		}
		ids = append(ids, watcher)

		for _, id := range ids[:len(ids)-1] {
			code, err := sys.Wait(id)
			if err != nil {
				return ids, fmt.Errorf("wait for task %d: %w", id, err)
			}
			slog.Info("task joined", "task_id", sys.ID(), "target_id", id, "exit_code", code)
		}
		return ids, nil
	}
}

// fibCommand computes Fibonacci numbers in preemptible tasks.
func fibCommand() *cli.Command {
	return &cli.Command{
		Name:  "fib",
		Usage: "recursive Fibonacci workloads competing for the processor",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "tasks", Value: 10, Usage: "number of tasks"},
			&cli.IntFlag{Name: "base", Value: 20, Usage: "task i computes terms up to base+i"},
		},
		Action: scenarioAction(func(c *cli.Context) scenario {
			return fibScenario(c.Int("tasks"), c.Int("base"))
		}),
	}
}

// fibScenario creates tasks where task i computes Fibonacci terms up to base+i.
func fibScenario(tasks, base int) scenario {
	return func(_ context.Context, sys *scheduler.System) ([]scheduler.TaskID, error) {
		ids := make([]scheduler.TaskID, 0, tasks)
		for i := 0; i < tasks; i++ {
			n := base + i
			task := fib.NewTask(sys, fmt.Sprintf("fib%d", n), n, fibonacci.NewRecursive())
			id, err := sys.Create(task.Run, nil)
			if err != nil {
				return ids, fmt.Errorf("create task: %w", err)
			}
			ids = append(ids, id)
		}
		return ids, nil
	}
}
