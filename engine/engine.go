// Package engine defines the contract between a compiled plan and the
// provisioning engine that turns it into real resources, and walks a plan
// through an engine.
package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/initializ/envpipe/plan"
)

// Handle is the opaque result of a provisioning request.
type Handle struct {
	ID         string            `json:"id" yaml:"id"`
	Attributes map[string]string `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

// Attr returns a provider-issued attribute, or "" when the engine did not
// issue it.
func (h Handle) Attr(name string) string { return h.Attributes[name] }

// Handles maps logical resource IDs to the handles issued for them.
type Handles map[string]Handle

// Resolve returns the handle a Ref points at, or the requested attribute
// wrapped in a Handle with that attribute as ID.
func (h Handles) Resolve(ref plan.Ref) (Handle, error) {
	got, ok := h[ref.Resource]
	if !ok {
		return Handle{}, fmt.Errorf("unresolved reference %s", ref)
	}
	if ref.Attribute == "" {
		return got, nil
	}
	v, ok := got.Attributes[ref.Attribute]
	if !ok {
		return Handle{}, fmt.Errorf("resource %s has no attribute %s", ref.Resource, ref.Attribute)
	}
	return Handle{ID: v}, nil
}

func (h Handles) clone() Handles {
	out := make(Handles, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}

// PipelineRequest asks the engine for the pipeline itself.
type PipelineRequest struct {
	ID            string
	Name          string
	Source        plan.Stage
	Notifications *plan.Notifications
}

// Engine provisions resources. Implementations must not retry on their own
// behalf of this package; whatever they return is reported as is.
type Engine interface {
	// Provision creates one resource. deps holds a handle for every
	// resource r references.
	Provision(ctx context.Context, r plan.Resource, deps Handles) (Handle, error)
	// ProvisionPipeline creates the pipeline with its source stage.
	ProvisionPipeline(ctx context.Context, req PipelineRequest, deps Handles) (Handle, error)
	// AddStage appends a stage, with its actions, to a provisioned pipeline.
	AddStage(ctx context.Context, pipeline Handle, stage plan.Stage, deps Handles) (Handle, error)
}

// ProvisioningError wraps an engine failure with the resource it concerned.
type ProvisioningError struct {
	Environment string
	Resource    string
	Err         error
}

func (e *ProvisioningError) Error() string {
	if e.Environment == "" {
		return fmt.Sprintf("provisioning %s: %v", e.Resource, e.Err)
	}
	return fmt.Sprintf("environment %q: provisioning %s: %v", e.Environment, e.Resource, e.Err)
}

func (e *ProvisioningError) Unwrap() error { return e.Err }

// IsProvisioning reports whether err (or any error in its chain) is a
// ProvisioningError.
func IsProvisioning(err error) bool {
	var pe *ProvisioningError
	return errors.As(err, &pe)
}
