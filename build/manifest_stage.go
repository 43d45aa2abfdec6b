package build

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/initializ/envpipe/pipeline"
)

// ManifestStage writes build-manifest.json with synth metadata.
type ManifestStage struct{}

func (s *ManifestStage) Name() string { return "write-build-manifest" }

func (s *ManifestStage) Execute(ctx context.Context, bc *pipeline.BuildContext) error {
	if bc.Plan == nil {
		return fmt.Errorf("no plan compiled")
	}

	files := make([]string, 0, len(bc.GeneratedFiles)+1)
	for rel := range bc.GeneratedFiles {
		files = append(files, rel)
	}
	files = append(files, "build-manifest.json")
	sort.Strings(files)

	stages := make([]string, len(bc.Plan.Stages))
	for i, st := range bc.Plan.Stages {
		stages[i] = st.Name
	}

	manifest := map[string]any{
		"pipeline":    bc.Plan.Name,
		"pipeline_id": bc.Plan.ID,
		"variant":     bc.Plan.Variant,
		"built_at":    time.Now().UTC().Format(time.RFC3339),
		"output_dir":  bc.Opts.OutputDir,
		"stages":      stages,
		"files":       files,
	}
	if bc.AssemblyDir != "" {
		manifest["assembly_dir"] = bc.AssemblyDir
	}
	if bc.Result != nil {
		manifest["provisioned"] = len(bc.Result.Environments) - len(bc.Result.Failed())
	}
	if len(bc.Warnings) > 0 {
		manifest["warnings"] = bc.Warnings
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling build manifest: %w", err)
	}

	if err := os.MkdirAll(bc.Opts.OutputDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	outPath := filepath.Join(bc.Opts.OutputDir, "build-manifest.json")
	if err := os.WriteFile(outPath, data, 0644); err != nil {
		return fmt.Errorf("writing build-manifest.json: %w", err)
	}

	bc.AddFile("build-manifest.json", outPath)
	return nil
}
