package engine

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/initializ/envpipe/logging"
	"github.com/initializ/envpipe/plan"
)

// Options configures Apply.
type Options struct {
	// Parallelism bounds how many environments are provisioned at once.
	// Values below 1 mean one at a time.
	Parallelism int
	Logger      logging.Logger
}

// Result records every handle Apply obtained.
type Result struct {
	Pipeline     Handle              `json:"pipeline" yaml:"pipeline"`
	Shared       Handles             `json:"shared" yaml:"shared"`
	Environments []EnvironmentResult `json:"environments" yaml:"environments"`
}

// EnvironmentResult is the outcome for one environment. On failure Handles
// and Stage are empty: nothing of a failed environment is referenced.
type EnvironmentResult struct {
	Name    string  `json:"name" yaml:"name"`
	Handles Handles `json:"handles,omitempty" yaml:"handles,omitempty"`
	Stage   Handle  `json:"stage" yaml:"stage"`
	Err     error   `json:"-" yaml:"-"`
}

// Failed returns the names of environments that did not provision.
func (r *Result) Failed() []string {
	var out []string
	for _, env := range r.Environments {
		if env.Err != nil {
			out = append(out, env.Name)
		}
	}
	return out
}

// Apply hands a complete plan to an engine: shared resources first, then the
// pipeline, then every environment's resources, then the environment stages
// in plan order. Environments are independent, so their resources may be
// provisioned concurrently; stage order never depends on that.
//
// A failure in a shared resource or the pipeline aborts the run. A failure in
// one environment drops that environment (its stage is not added) and is
// reported in the returned error alongside any others.
func Apply(ctx context.Context, p *plan.Pipeline, eng Engine, opts Options) (*Result, error) {
	log := logging.OrNop(opts.Logger)
	res := &Result{Shared: make(Handles, len(p.Shared))}

	for _, r := range p.Shared {
		h, err := provision(ctx, eng, r, res.Shared)
		if err != nil {
			log.Error("shared resource failed", map[string]any{"resource": r.ID, "error": err.Error()})
			return nil, &ProvisioningError{Resource: r.ID, Err: err}
		}
		log.Debug("shared resource provisioned", map[string]any{"resource": r.ID, "kind": string(r.Kind), "handle": h.ID})
		res.Shared[r.ID] = h
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ph, err := eng.ProvisionPipeline(ctx, PipelineRequest{
		ID:            p.ID,
		Name:          p.Name,
		Source:        p.Source,
		Notifications: p.Notifications,
	}, res.Shared)
	if err != nil {
		return nil, &ProvisioningError{Resource: p.ID, Err: err}
	}
	res.Pipeline = ph

	res.Environments = make([]EnvironmentResult, len(p.Environments))
	limit := opts.Parallelism
	if limit < 1 {
		limit = 1
	}
	var g errgroup.Group
	g.SetLimit(limit)
	for i, env := range p.Environments {
		i, env := i, env
		g.Go(func() error {
			res.Environments[i] = applyEnvironment(ctx, eng, env, res.Shared)
			return nil
		})
	}
	_ = g.Wait()

	var errs []error
	for i, env := range p.Environments {
		er := &res.Environments[i]
		if er.Err != nil {
			log.Error("environment failed", map[string]any{"environment": env.Name, "error": er.Err.Error()})
			errs = append(errs, er.Err)
			continue
		}
		idx := indexOfStage(p, env.StageName)
		if idx < 0 {
			pe := &ProvisioningError{Environment: env.Name, Resource: env.StageName, Err: errors.New("stage missing from plan")}
			*er = EnvironmentResult{Name: env.Name, Err: pe}
			errs = append(errs, pe)
			continue
		}
		stage := p.Stages[idx]
		sh, err := eng.AddStage(ctx, ph, stage, er.Handles)
		if err != nil {
			pe := &ProvisioningError{Environment: env.Name, Resource: stage.Name, Err: err}
			*er = EnvironmentResult{Name: env.Name, Err: pe}
			errs = append(errs, pe)
			continue
		}
		er.Stage = sh
		log.Info("environment provisioned", map[string]any{"environment": env.Name, "stage": stage.Name, "resources": len(er.Handles) - len(res.Shared)})
	}

	return res, errors.Join(errs...)
}

func applyEnvironment(ctx context.Context, eng Engine, env plan.EnvironmentPlan, shared Handles) EnvironmentResult {
	handles := shared.clone()
	for _, r := range env.Resources() {
		h, err := provision(ctx, eng, r, handles)
		if err != nil {
			return EnvironmentResult{
				Name: env.Name,
				Err:  &ProvisioningError{Environment: env.Name, Resource: r.ID, Err: err},
			}
		}
		handles[r.ID] = h
	}
	return EnvironmentResult{Name: env.Name, Handles: handles}
}

func provision(ctx context.Context, eng Engine, r plan.Resource, known Handles) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return Handle{}, err
	}
	deps := make(Handles)
	for _, ref := range r.References() {
		h, ok := known[ref.Resource]
		if !ok {
			return Handle{}, fmt.Errorf("dependency %s was not provisioned", ref.Resource)
		}
		deps[ref.Resource] = h
	}
	return eng.Provision(ctx, r, deps)
}

func indexOfStage(p *plan.Pipeline, name string) int {
	for i, s := range p.Stages {
		if s.Name == name {
			return i
		}
	}
	return -1
}
