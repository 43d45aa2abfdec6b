package build

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/initializ/envpipe/engine/memory"
	"github.com/initializ/envpipe/pipeline"
	"github.com/initializ/envpipe/types"
)

func testConfig() *types.PipelineConfig {
	cfg := &types.PipelineConfig{
		Name:        "web",
		Variant:     types.VariantFrontendCDN,
		Artifacts:   types.ArtifactsRef{Bucket: "artifacts", SourceKey: "site.zip"},
		Certificate: "arn:aws:acm:us-east-1:123456789012:certificate/abc",
		HostedZone:  types.HostedZoneRef{ID: "Z123", Name: "example.com"},
		Environments: []types.EnvironmentSpec{
			{Name: "qa", Aliases: []string{"qa.example.com"}, DomainNameRegistrar: "Namecheap"},
			{Name: "prod", Aliases: []string{"www.example.com"}, ApprovalRequired: true, DomainNameRegistrar: types.RegistrarAWS},
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

func newContext(t *testing.T) *pipeline.BuildContext {
	t.Helper()
	bc := pipeline.NewBuildContext(pipeline.Options{OutputDir: t.TempDir()})
	bc.Config = testConfig()
	return bc
}

func readJSON(t *testing.T, path string) map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("unmarshalling %s: %v", path, err)
	}
	return doc
}

func TestValidateStage(t *testing.T) {
	bc := newContext(t)
	bc.Config.Environments[0].DomainNameRegistrar = ""
	if err := (&ValidateStage{}).Execute(context.Background(), bc); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if len(bc.Warnings) == 0 {
		t.Error("expected a warning for the empty registrar")
	}

	bc.Config.Environments[1].Aliases = nil
	err := (&ValidateStage{}).Execute(context.Background(), bc)
	if err == nil || !strings.Contains(err.Error(), "aliases") {
		t.Errorf("Execute() error = %v, want alias error", err)
	}
}

func TestCompileStage(t *testing.T) {
	bc := newContext(t)
	if err := (&CompileStage{}).Execute(context.Background(), bc); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if bc.Plan == nil || len(bc.Plan.Stages) != 2 {
		t.Fatalf("plan = %+v", bc.Plan)
	}

	bc = pipeline.NewBuildContext(pipeline.Options{})
	if err := (&CompileStage{}).Execute(context.Background(), bc); err == nil {
		t.Error("expected error without a config")
	}
}

func TestPlanFileStage(t *testing.T) {
	bc := newContext(t)
	if err := (&CompileStage{}).Execute(context.Background(), bc); err != nil {
		t.Fatalf("compile: %v", err)
	}
	if err := (&PlanFileStage{}).Execute(context.Background(), bc); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	doc := readJSON(t, filepath.Join(bc.Opts.OutputDir, "plan.json"))
	if doc["id"] != "WebPipeline" {
		t.Errorf("plan id = %v", doc["id"])
	}
	if _, err := os.Stat(filepath.Join(bc.Opts.OutputDir, "plan.yaml")); err != nil {
		t.Errorf("plan.yaml: %v", err)
	}
	if len(bc.GeneratedFiles) != 2 {
		t.Errorf("generated files = %v", bc.GeneratedFiles)
	}
}

func TestProvisionStage(t *testing.T) {
	bc := newContext(t)
	eng := memory.New()
	bc.Engine = eng
	if err := (&CompileStage{}).Execute(context.Background(), bc); err != nil {
		t.Fatalf("compile: %v", err)
	}
	if err := (&ProvisionStage{}).Execute(context.Background(), bc); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	if got := eng.Stages(bc.Result.Pipeline); strings.Join(got, ",") != "QaDeploy,ProdDeploy" {
		t.Errorf("stages = %v", got)
	}
	doc := readJSON(t, filepath.Join(bc.Opts.OutputDir, "result.json"))
	envs, ok := doc["environments"].([]any)
	if !ok || len(envs) != 2 {
		t.Errorf("result environments = %v", doc["environments"])
	}
}

func TestProvisionStage_EnvironmentFailure(t *testing.T) {
	bc := newContext(t)
	eng := memory.New()
	boom := errors.New("limit exceeded")
	eng.FailOn("QaWebDistribution", boom)
	bc.Engine = eng
	if err := (&CompileStage{}).Execute(context.Background(), bc); err != nil {
		t.Fatalf("compile: %v", err)
	}

	err := (&ProvisionStage{}).Execute(context.Background(), bc)
	if !errors.Is(err, boom) {
		t.Fatalf("Execute() error = %v, want %v", err, boom)
	}
	if bc.Result == nil || len(bc.Result.Failed()) != 1 {
		t.Fatalf("result = %+v", bc.Result)
	}
	if _, err := os.Stat(filepath.Join(bc.Opts.OutputDir, "result.json")); err != nil {
		t.Errorf("result.json should be written for partial results: %v", err)
	}
}

func TestProvisionStage_NoEngine(t *testing.T) {
	bc := newContext(t)
	if err := (&CompileStage{}).Execute(context.Background(), bc); err != nil {
		t.Fatalf("compile: %v", err)
	}
	if err := (&ProvisionStage{}).Execute(context.Background(), bc); err == nil {
		t.Error("expected error without an engine")
	}
}

func TestManifestStage_Execute(t *testing.T) {
	bc := newContext(t)
	bc.Engine = memory.New()
	err := pipeline.New(SynthStages()...).Run(context.Background(), bc)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	manifest := readJSON(t, filepath.Join(bc.Opts.OutputDir, "build-manifest.json"))
	if manifest["pipeline_id"] != "WebPipeline" {
		t.Errorf("pipeline_id = %v", manifest["pipeline_id"])
	}
	if manifest["built_at"] == nil {
		t.Error("built_at is nil")
	}
	if manifest["provisioned"] != float64(2) {
		t.Errorf("provisioned = %v, want 2", manifest["provisioned"])
	}

	files, ok := manifest["files"].([]any)
	if !ok {
		t.Fatalf("files is not an array: %T", manifest["files"])
	}
	want := []string{"build-manifest.json", "plan.json", "plan.yaml", "result.json"}
	if len(files) != len(want) {
		t.Fatalf("files = %v, want %v", files, want)
	}
	for i, f := range want {
		if files[i] != f {
			t.Errorf("files[%d] = %v, want %s", i, files[i], f)
		}
	}
}
