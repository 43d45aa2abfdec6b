package build

import (
	"context"
	"fmt"

	"github.com/initializ/envpipe/compiler"
	"github.com/initializ/envpipe/logging"
	"github.com/initializ/envpipe/pipeline"
)

// CompileStage compiles the loaded definition into a plan.
type CompileStage struct{}

func (s *CompileStage) Name() string { return "compile-plan" }

func (s *CompileStage) Execute(ctx context.Context, bc *pipeline.BuildContext) error {
	if bc.Config == nil {
		return fmt.Errorf("no pipeline definition loaded")
	}
	p, err := compiler.Compile(bc.Config)
	if err != nil {
		return err
	}
	bc.Plan = p

	logging.OrNop(bc.Logger).Info("plan compiled", map[string]any{
		"pipeline":     p.ID,
		"variant":      p.Variant,
		"environments": len(p.Environments),
		"stages":       len(p.Stages),
	})
	return nil
}
