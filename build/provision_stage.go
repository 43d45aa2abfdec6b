package build

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/initializ/envpipe/engine"
	"github.com/initializ/envpipe/logging"
	"github.com/initializ/envpipe/pipeline"
)

// Synthesizer is implemented by engines that write their own output once
// every resource is provisioned.
type Synthesizer interface {
	Synth() (string, error)
}

// ProvisionStage hands the plan to the configured engine and writes the
// issued handles to result.json.
type ProvisionStage struct{}

func (s *ProvisionStage) Name() string { return "provision" }

func (s *ProvisionStage) Execute(ctx context.Context, bc *pipeline.BuildContext) error {
	if bc.Plan == nil {
		return fmt.Errorf("no plan compiled")
	}
	if bc.Engine == nil {
		return fmt.Errorf("no engine configured")
	}
	log := logging.OrNop(bc.Logger)

	res, applyErr := engine.Apply(ctx, bc.Plan, bc.Engine, engine.Options{
		Parallelism: bc.Opts.Parallelism,
		Logger:      bc.Logger,
	})
	if res == nil {
		return applyErr
	}
	bc.Result = res
	for _, name := range res.Failed() {
		bc.AddWarning(fmt.Sprintf("environment %q was not provisioned", name))
	}

	if err := os.MkdirAll(bc.Opts.OutputDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling result: %w", err)
	}
	outPath := filepath.Join(bc.Opts.OutputDir, "result.json")
	if err := os.WriteFile(outPath, data, 0644); err != nil {
		return fmt.Errorf("writing result.json: %w", err)
	}
	bc.AddFile("result.json", outPath)

	if applyErr != nil {
		return applyErr
	}

	if synth, ok := bc.Engine.(Synthesizer); ok {
		dir, err := synth.Synth()
		if err != nil {
			return fmt.Errorf("synthesizing: %w", err)
		}
		bc.AssemblyDir = dir
		log.Info("cloud assembly written", map[string]any{"dir": dir})
	}
	return nil
}
