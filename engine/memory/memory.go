// Package memory is an Engine that provisions nothing. It issues random
// opaque handles and remembers every request, which makes it the engine for
// dry runs and tests.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/initializ/envpipe/engine"
	"github.com/initializ/envpipe/plan"
)

// Request is one call the engine received.
type Request struct {
	Kind string
	ID   string
}

// Engine is an in-memory engine.Engine.
type Engine struct {
	mu       sync.Mutex
	requests []Request
	stages   map[string][]string
	failures map[string]error
}

var _ engine.Engine = (*Engine)(nil)

// New creates an empty engine.
func New() *Engine {
	return &Engine{
		stages:   make(map[string][]string),
		failures: make(map[string]error),
	}
}

// FailOn makes every later request for id fail with err.
func (e *Engine) FailOn(id string, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failures[id] = err
}

// Requests returns a copy of the requests received so far.
func (e *Engine) Requests() []Request {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Request(nil), e.requests...)
}

// Stages returns the stage names added to the pipeline handle, in order.
func (e *Engine) Stages(pipeline engine.Handle) []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.stages[pipeline.ID]...)
}

func (e *Engine) record(kind, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.requests = append(e.requests, Request{Kind: kind, ID: id})
	return e.failures[id]
}

// Provision implements engine.Engine.
func (e *Engine) Provision(ctx context.Context, r plan.Resource, deps engine.Handles) (engine.Handle, error) {
	if err := r.Validate(); err != nil {
		return engine.Handle{}, err
	}
	for _, ref := range r.References() {
		if _, err := deps.Resolve(ref); err != nil {
			return engine.Handle{}, err
		}
	}
	if err := e.record(string(r.Kind), r.ID); err != nil {
		return engine.Handle{}, err
	}

	id := uuid.NewString()
	h := engine.Handle{
		ID: id,
		Attributes: map[string]string{
			plan.AttrARN: fmt.Sprintf("arn:envpipe:%s:%s", strings.ToLower(string(r.Kind)), id),
		},
	}
	if r.Kind == plan.ResourceDistribution {
		h.Attributes[plan.AttrDomainName] = "d" + strings.ReplaceAll(id, "-", "")[:13] + ".cloudfront.net"
	}
	return h, nil
}

// ProvisionPipeline implements engine.Engine.
func (e *Engine) ProvisionPipeline(ctx context.Context, req engine.PipelineRequest, deps engine.Handles) (engine.Handle, error) {
	if err := checkActions(req.Source, deps); err != nil {
		return engine.Handle{}, err
	}
	if req.Notifications != nil {
		if _, err := deps.Resolve(req.Notifications.Topic); err != nil {
			return engine.Handle{}, err
		}
	}
	if err := e.record("Pipeline", req.ID); err != nil {
		return engine.Handle{}, err
	}
	return engine.Handle{ID: uuid.NewString()}, nil
}

// AddStage implements engine.Engine.
func (e *Engine) AddStage(ctx context.Context, pipeline engine.Handle, stage plan.Stage, deps engine.Handles) (engine.Handle, error) {
	if err := stage.CheckRunOrder(); err != nil {
		return engine.Handle{}, err
	}
	if err := checkActions(stage, deps); err != nil {
		return engine.Handle{}, err
	}
	if err := e.record("Stage", stage.Name); err != nil {
		return engine.Handle{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for _, name := range e.stages[pipeline.ID] {
		if name == stage.Name {
			return engine.Handle{}, fmt.Errorf("stage %s already exists", stage.Name)
		}
	}
	e.stages[pipeline.ID] = append(e.stages[pipeline.ID], stage.Name)
	return engine.Handle{ID: uuid.NewString()}, nil
}

func checkActions(stage plan.Stage, deps engine.Handles) error {
	for _, a := range stage.Actions {
		var refs []plan.Ref
		switch {
		case a.Source != nil:
			refs = append(refs, a.Source.Store)
		case a.Build != nil:
			refs = append(refs, a.Build.Project)
		case a.Deploy != nil:
			refs = append(refs, a.Deploy.Store)
		case a.Approval != nil && a.Approval.NotificationTopic != nil:
			refs = append(refs, *a.Approval.NotificationTopic)
		}
		for _, ref := range refs {
			if _, err := deps.Resolve(ref); err != nil {
				return fmt.Errorf("action %s: %w", a.Name, err)
			}
		}
	}
	return nil
}
