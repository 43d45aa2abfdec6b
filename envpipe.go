// Package envpipe provides a high-level API surface for embedding the
// pipeline compiler, validator and provisioning walker as a library.
//
// This is the entry point for callers who want compiled plans without
// importing the CLI.
package envpipe

import (
	"context"

	"github.com/initializ/envpipe/compiler"
	"github.com/initializ/envpipe/engine"
	"github.com/initializ/envpipe/logging"
	"github.com/initializ/envpipe/plan"
	"github.com/initializ/envpipe/types"
	"github.com/initializ/envpipe/validate"
)

// ─── Compile API ──────────────────────────────────────────────────────

// CompileResult contains the outputs of a successful compilation.
type CompileResult struct {
	Plan     *plan.Pipeline
	Warnings []string
}

// Compile turns a pipeline definition into a plan. Errors are the typed
// errors of package compiler, joined when more than one environment is at
// fault. Validation warnings are returned alongside the plan.
func Compile(cfg *types.PipelineConfig) (*CompileResult, error) {
	p, err := compiler.Compile(cfg)
	if err != nil {
		return nil, err
	}
	return &CompileResult{
		Plan:     p,
		Warnings: validate.ValidatePipelineConfig(cfg).Warnings,
	}, nil
}

// ─── Validate API ─────────────────────────────────────────────────────

// Validate checks a pipeline definition without compiling it.
func Validate(cfg *types.PipelineConfig) *validate.ValidationResult {
	return validate.ValidatePipelineConfig(cfg)
}

// ─── Synth API ────────────────────────────────────────────────────────

// SynthRequest contains the inputs for compiling and provisioning a
// definition in one call.
type SynthRequest struct {
	Config      *types.PipelineConfig
	Engine      engine.Engine
	Parallelism int
	Logger      logging.Logger
}

// SynthResult contains the plan and the handles the engine issued.
type SynthResult struct {
	Plan     *plan.Pipeline
	Result   *engine.Result
	Warnings []string
}

// Synth compiles the definition and hands the plan to the engine. When some
// environments fail to provision, the partial result is returned together
// with the error.
func Synth(ctx context.Context, req SynthRequest) (*SynthResult, error) {
	compiled, err := Compile(req.Config)
	if err != nil {
		return nil, err
	}
	res, err := engine.Apply(ctx, compiled.Plan, req.Engine, engine.Options{
		Parallelism: req.Parallelism,
		Logger:      req.Logger,
	})
	if res == nil {
		return nil, err
	}
	return &SynthResult{Plan: compiled.Plan, Result: res, Warnings: compiled.Warnings}, err
}
