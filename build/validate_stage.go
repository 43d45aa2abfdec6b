package build

import (
	"context"
	"fmt"
	"strings"

	"github.com/initializ/envpipe/logging"
	"github.com/initializ/envpipe/pipeline"
	"github.com/initializ/envpipe/validate"
)

// ValidateStage checks the pipeline definition before anything is compiled.
// Warnings are recorded on the build context; errors stop the pipeline.
type ValidateStage struct{}

func (s *ValidateStage) Name() string { return "validate-config" }

func (s *ValidateStage) Execute(ctx context.Context, bc *pipeline.BuildContext) error {
	if bc.Config == nil {
		return fmt.Errorf("no pipeline definition loaded")
	}
	log := logging.OrNop(bc.Logger)

	r := validate.ValidatePipelineConfig(bc.Config)
	for _, w := range r.Warnings {
		log.Warn("pipeline definition", map[string]any{"warning": w})
		bc.AddWarning(w)
	}
	if !r.IsValid() {
		return fmt.Errorf("pipeline definition is invalid:\n  %s", strings.Join(r.Errors, "\n  "))
	}
	return nil
}
