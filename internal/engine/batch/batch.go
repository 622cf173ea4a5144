// Package batch runs named sets of independent backend queries without
// letting any single failure abort the set. Every failure is collected and
// the failed query's result keeps its declared zero value.
package batch

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// QueryFailure is the non-fatal record of one failed query.
type QueryFailure struct {
	Label   string `json:"label"`
	Message string `json:"message"`
}

func (f QueryFailure) String() string {
	return f.Label + ": " + f.Message
}

// Step is one named query. Run stores its result through a closure; when it
// returns an error the target keeps whatever zero value it was declared
// with.
type Step struct {
	Label string
	Run   func(ctx context.Context) error
}

// ProgressFunc is invoked with the step label before each query starts.
type ProgressFunc func(label string)

// Executor runs steps in declaration order. It never retries; retry policy
// lives in the query client.
type Executor struct {
	Progress ProgressFunc
}

// Run executes every step sequentially and returns the failures. A panic
// escaping a step is a programming defect and is not recovered here.
func (e *Executor) Run(ctx context.Context, steps []Step) []QueryFailure {
	var failures []QueryFailure

	for _, step := range steps {
		e.report(step.Label)
		if err := step.Run(ctx); err != nil {
			failures = append(failures, QueryFailure{Label: step.Label, Message: err.Error()})
		}
	}

	return failures
}

// RunConcurrent executes the steps with at most limit in flight. Progress
// is still reported once per step, immediately before it starts; the
// failure list keeps step order.
func (e *Executor) RunConcurrent(ctx context.Context, steps []Step, limit int) []QueryFailure {
	if limit < 1 {
		limit = 1
	}

	var mu sync.Mutex
	results := make([]*QueryFailure, len(steps))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, step := range steps {
		g.Go(func() error {
			mu.Lock()
			e.report(step.Label)
			mu.Unlock()

			if err := step.Run(gctx); err != nil {
				mu.Lock()
				results[i] = &QueryFailure{Label: step.Label, Message: err.Error()}
				mu.Unlock()
			}
			// Always nil: one failed query must not cancel the group.
			return nil
		})
	}
	_ = g.Wait()

	var failures []QueryFailure
	for _, f := range results {
		if f != nil {
			failures = append(failures, *f)
		}
	}
	return failures
}

func (e *Executor) report(label string) {
	if e.Progress != nil {
		e.Progress(label)
	}
}

// CountStep builds a step that stores a count result.
func CountStep(label string, target *int, count func(ctx context.Context) (int, error)) Step {
	return Step{
		Label: label,
		Run: func(ctx context.Context) error {
			n, err := count(ctx)
			if err != nil {
				return fmt.Errorf("counting %s: %w", label, err)
			}
			*target = n
			return nil
		},
	}
}
