package sim

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// StageFunc runs one system stage for the current tick.
type StageFunc func(ctx context.Context) error

// Stage declares a named system and the stages that must complete before it.
type Stage struct {
	Name  string
	After []string
	Run   StageFunc
}

// Scheduler partitions stages into dependency levels and runs each level on a
// shared worker pool. Stages at the same level run concurrently; a stage never
// starts before every stage it names in After has finished.
type Scheduler struct {
	levels  [][]Stage
	workers int
}

func NewScheduler(stages []Stage, workers int) (*Scheduler, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	byName := make(map[string]Stage, len(stages))
	for _, stage := range stages {
		if stage.Name == "" {
			return nil, fmt.Errorf("stage with empty name")
		}
		if _, dup := byName[stage.Name]; dup {
			return nil, fmt.Errorf("duplicate stage %q", stage.Name)
		}
		byName[stage.Name] = stage
	}
	for _, stage := range stages {
		for _, dep := range stage.After {
			if _, ok := byName[dep]; !ok {
				return nil, fmt.Errorf("stage %q depends on unknown stage %q", stage.Name, dep)
			}
		}
	}

	level := make(map[string]int, len(stages))
	var resolve func(name string, trail map[string]bool) (int, error)
	resolve = func(name string, trail map[string]bool) (int, error) {
		if lv, ok := level[name]; ok {
			return lv, nil
		}
		if trail[name] {
			return 0, fmt.Errorf("dependency cycle through stage %q", name)
		}
		trail[name] = true
		defer delete(trail, name)
		max := -1
		for _, dep := range byName[name].After {
			lv, err := resolve(dep, trail)
			if err != nil {
				return 0, err
			}
			if lv > max {
				max = lv
			}
		}
		level[name] = max + 1
		return max + 1, nil
	}

	deepest := 0
	for _, stage := range stages {
		lv, err := resolve(stage.Name, map[string]bool{})
		if err != nil {
			return nil, err
		}
		if lv > deepest {
			deepest = lv
		}
	}

	levels := make([][]Stage, deepest+1)
	for _, stage := range stages {
		lv := level[stage.Name]
		levels[lv] = append(levels[lv], stage)
	}
	return &Scheduler{levels: levels, workers: workers}, nil
}

// Levels reports the stage names per level, in execution order.
func (s *Scheduler) Levels() [][]string {
	if s == nil {
		return nil
	}
	names := make([][]string, len(s.levels))
	for i, level := range s.levels {
		for _, stage := range level {
			names[i] = append(names[i], stage.Name)
		}
	}
	return names
}

// RunTick executes every level in order. The first stage error aborts the
// remaining levels and is returned.
func (s *Scheduler) RunTick(ctx context.Context) error {
	if s == nil {
		return nil
	}
	for _, stages := range s.levels {
		if len(stages) == 1 {
			if stages[0].Run == nil {
				continue
			}
			if err := stages[0].Run(ctx); err != nil {
				return fmt.Errorf("stage %s: %w", stages[0].Name, err)
			}
			continue
		}
		group, groupCtx := errgroup.WithContext(ctx)
		group.SetLimit(s.workers)
		for _, stage := range stages {
			if stage.Run == nil {
				continue
			}
			stage := stage
			group.Go(func() error {
				if err := stage.Run(groupCtx); err != nil {
					return fmt.Errorf("stage %s: %w", stage.Name, err)
				}
				return nil
			})
		}
		if err := group.Wait(); err != nil {
			return err
		}
	}
	return nil
}
