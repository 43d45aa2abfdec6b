package build

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/initializ/envpipe/pipeline"
	"github.com/initializ/envpipe/render"
)

// PlanFileStage writes the compiled plan as plan.json and plan.yaml.
type PlanFileStage struct{}

func (s *PlanFileStage) Name() string { return "write-plan" }

func (s *PlanFileStage) Execute(ctx context.Context, bc *pipeline.BuildContext) error {
	if bc.Plan == nil {
		return fmt.Errorf("no plan compiled")
	}
	if err := os.MkdirAll(bc.Opts.OutputDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	outputs := []struct {
		name   string
		encode func() ([]byte, error)
	}{
		{"plan.json", func() ([]byte, error) { return render.JSON(bc.Plan) }},
		{"plan.yaml", func() ([]byte, error) { return render.YAML(bc.Plan) }},
	}
	for _, o := range outputs {
		data, err := o.encode()
		if err != nil {
			return err
		}
		outPath := filepath.Join(bc.Opts.OutputDir, o.name)
		if err := os.WriteFile(outPath, data, 0644); err != nil {
			return fmt.Errorf("writing %s: %w", o.name, err)
		}
		bc.AddFile(o.name, outPath)
	}
	return nil
}
