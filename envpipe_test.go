package envpipe

import (
	"context"
	"errors"
	"testing"

	"github.com/initializ/envpipe/compiler"
	"github.com/initializ/envpipe/engine"
	"github.com/initializ/envpipe/engine/memory"
	"github.com/initializ/envpipe/types"
)

func testConfig() *types.PipelineConfig {
	cfg := &types.PipelineConfig{
		Name:      "service",
		Variant:   types.VariantGeneric,
		Artifacts: types.ArtifactsRef{Bucket: "artifacts", SourceKey: "service.zip"},
		Environments: []types.EnvironmentSpec{
			{Name: "test", BuildSpec: buildSpec()},
			{Name: "prod", ApprovalRequired: true, BuildSpec: buildSpec(), Aliases: []string{"ignored.example.com"}},
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

func buildSpec() map[string]any {
	return map[string]any{
		"version": 0.2,
		"phases": map[string]any{
			"build": map[string]any{"commands": []any{"make deploy"}},
		},
	}
}

func TestCompile(t *testing.T) {
	res, err := Compile(testConfig())
	if err != nil {
		t.Fatalf("Compile() error: %v", err)
	}
	if len(res.Plan.Stages) != 2 {
		t.Fatalf("stages = %d, want 2", len(res.Plan.Stages))
	}
	if len(res.Warnings) != 1 {
		t.Errorf("warnings = %v, want one for the ignored alias", res.Warnings)
	}
}

func TestCompile_TypedErrors(t *testing.T) {
	cfg := testConfig()
	cfg.Environments[1].Name = "Test"

	_, err := Compile(cfg)
	if !errors.Is(err, compiler.ErrDuplicateEnvironmentName) {
		t.Fatalf("Compile() error = %v, want duplicate environment name", err)
	}
}

func frontendConfig() *types.PipelineConfig {
	cfg := &types.PipelineConfig{
		Name:        "web",
		Variant:     types.VariantFrontendCDN,
		Artifacts:   types.ArtifactsRef{SourceKey: "site.zip"},
		Certificate: "arn:aws:acm:us-east-1:123456789012:certificate/abc",
		Environments: []types.EnvironmentSpec{
			{Name: "prod", Aliases: []string{"www.example.com"}, DomainNameRegistrar: "EXTERNAL"},
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

// Validate and Compile must accept and reject the same definitions.
func TestValidateAgreesWithCompile(t *testing.T) {
	tests := []struct {
		name   string
		cfg    func() *types.PipelineConfig
		target error
	}{
		{"valid generic", testConfig, nil},
		{"valid frontend", frontendConfig, nil},
		{"unusable pipeline name", func() *types.PipelineConfig {
			cfg := frontendConfig()
			cfg.Name = "web app!"
			return cfg
		}, compiler.ErrInvalidName},
		{"unknown price class", func() *types.PipelineConfig {
			cfg := frontendConfig()
			cfg.Environments[0].CloudfrontPriceClass = "PriceClass_Bogus"
			return cfg
		}, compiler.ErrUnknownPriceClass},
		{"reserved runtime variable", func() *types.PipelineConfig {
			cfg := testConfig()
			cfg.Environments[0].RuntimeVariables = map[string]string{"AWS_ACCESS_KEY_ID": "x"}
			return cfg
		}, compiler.ErrReservedVariable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			valid := Validate(tt.cfg()).IsValid()
			res, err := Compile(tt.cfg())
			if tt.target == nil {
				if !valid || err != nil {
					t.Fatalf("valid = %v, Compile() error = %v", valid, err)
				}
				return
			}
			if valid {
				t.Error("Validate() accepted a definition Compile rejects")
			}
			if res != nil || !errors.Is(err, tt.target) {
				t.Errorf("Compile() = %v, %v; want %v", res, err, tt.target)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	cfg := testConfig()
	cfg.Environments[0].BuildSpec = nil
	if Validate(cfg).IsValid() {
		t.Error("expected missing build spec to be invalid")
	}
}

func TestSynth(t *testing.T) {
	eng := memory.New()
	res, err := Synth(context.Background(), SynthRequest{Config: testConfig(), Engine: eng, Parallelism: 2})
	if err != nil {
		t.Fatalf("Synth() error: %v", err)
	}
	got := eng.Stages(res.Result.Pipeline)
	if len(got) != 2 || got[0] != "TestDeploy" || got[1] != "ProdDeploy" {
		t.Errorf("stages = %v", got)
	}
}

func TestSynth_PartialFailure(t *testing.T) {
	eng := memory.New()
	eng.FailOn("ProdPipelineProject", errors.New("limit"))

	res, err := Synth(context.Background(), SynthRequest{Config: testConfig(), Engine: eng})
	if !engine.IsProvisioning(err) {
		t.Fatalf("Synth() error = %v, want provisioning error", err)
	}
	if res == nil || len(res.Result.Failed()) != 1 || res.Result.Failed()[0] != "prod" {
		t.Fatalf("result = %+v", res)
	}
}
