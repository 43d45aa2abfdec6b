// Package pipeline provides a sequential step-based execution pipeline for
// the synth flow.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/initializ/envpipe/logging"
)

// Stage is a single unit of work in the synth pipeline.
type Stage interface {
	Name() string
	Execute(ctx context.Context, bc *BuildContext) error
}

// Options carries shared configuration for all stages.
type Options struct {
	ConfigPath string
	OutputDir  string
	// Parallelism bounds concurrent environment provisioning.
	Parallelism int
}

// Pipeline executes a sequence of stages in order.
type Pipeline struct {
	stages []Stage
}

// New creates a Pipeline from the given stages.
func New(stages ...Stage) *Pipeline {
	return &Pipeline{stages: stages}
}

// Run executes each stage sequentially. It stops on the first error.
func (p *Pipeline) Run(ctx context.Context, bc *BuildContext) error {
	log := logging.OrNop(bc.Logger)
	for _, s := range p.stages {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("pipeline cancelled before stage %s: %w", s.Name(), err)
		}
		start := time.Now()
		if err := s.Execute(ctx, bc); err != nil {
			log.Error("stage failed", map[string]any{"stage": s.Name(), "error": err.Error()})
			return fmt.Errorf("stage %s: %w", s.Name(), err)
		}
		log.Debug("stage done", map[string]any{"stage": s.Name(), "elapsed": time.Since(start).String()})
	}
	return nil
}
