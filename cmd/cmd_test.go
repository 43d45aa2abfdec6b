package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testDefinition = `name: web
variant: frontend-cdn
artifacts:
  bucket: artifacts
  sourceKey: site.zip
certificate: arn:aws:acm:us-east-1:123456789012:certificate/abc
hostedZone:
  id: Z123
  name: example.com
environments:
  - name: qa
    aliases: [qa.example.com]
    domainNameRegistrar: Namecheap
  - name: prod
    approvalRequired: true
    aliases: [www.example.com]
    domainNameRegistrar: AWS
`

func writeTestDefinition(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "envpipe.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing envpipe.yaml: %v", err)
	}
	return path
}

// useConfig points the global --config flag at path for the test.
func useConfig(t *testing.T, path string) {
	t.Helper()
	oldCfg := cfgFile
	cfgFile = path
	t.Cleanup(func() { cfgFile = oldCfg })
}

func captureStdout(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	old := stdout
	stdout = &buf
	t.Cleanup(func() { stdout = old })
	return &buf
}

func TestRunValidate_ValidConfig(t *testing.T) {
	useConfig(t, writeTestDefinition(t, t.TempDir(), testDefinition))
	out := captureStdout(t)

	oldStrict := strict
	strict = false
	defer func() { strict = oldStrict }()

	if err := runValidate(nil, nil); err != nil {
		t.Fatalf("runValidate() error: %v", err)
	}
	if !strings.Contains(out.String(), "Validation passed.") {
		t.Errorf("output = %q", out.String())
	}
}

func TestRunValidate_InvalidConfig(t *testing.T) {
	useConfig(t, writeTestDefinition(t, t.TempDir(), strings.Replace(testDefinition, "aliases: [qa.example.com]", "aliases: []", 1)))

	if err := runValidate(nil, nil); err == nil {
		t.Fatal("expected error for invalid config")
	}
}

func TestRunValidate_StrictMode(t *testing.T) {
	useConfig(t, writeTestDefinition(t, t.TempDir(), strings.Replace(testDefinition, "domainNameRegistrar: Namecheap", "", 1)))
	captureStdout(t)

	oldStrict := strict
	defer func() { strict = oldStrict }()

	strict = false
	if err := runValidate(nil, nil); err != nil {
		t.Fatalf("runValidate() error: %v", err)
	}
	strict = true
	if err := runValidate(nil, nil); err == nil {
		t.Fatal("expected strict mode to fail on the empty registrar warning")
	}
}

func TestRunValidate_MissingFile(t *testing.T) {
	useConfig(t, filepath.Join(t.TempDir(), "missing.yaml"))
	if err := runValidate(nil, nil); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestRunPlan_Formats(t *testing.T) {
	useConfig(t, writeTestDefinition(t, t.TempDir(), testDefinition))

	oldFormat := planFormat
	defer func() { planFormat = oldFormat }()

	tests := []struct {
		format string
		want   string
	}{
		{"text", "ProdDeploy: Approve -> Deploy"},
		{"json", `"id": "WebPipeline"`},
		{"yaml", "id: WebPipeline"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			out := captureStdout(t)
			planFormat = tt.format
			if err := runPlan(nil, nil); err != nil {
				t.Fatalf("runPlan() error: %v", err)
			}
			if !strings.Contains(out.String(), tt.want) {
				t.Errorf("output missing %q:\n%s", tt.want, out.String())
			}
		})
	}

	captureStdout(t)
	planFormat = "xml"
	if err := runPlan(nil, nil); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestRunPlan_Write(t *testing.T) {
	dir := t.TempDir()
	useConfig(t, writeTestDefinition(t, dir, testDefinition))
	out := captureStdout(t)

	oldFormat, oldWrite, oldOut := planFormat, planWrite, outputDir
	defer func() { planFormat, planWrite, outputDir = oldFormat, oldWrite, oldOut }()
	planFormat = "json"
	planWrite = true
	outputDir = "."

	if err := runPlan(nil, nil); err != nil {
		t.Fatalf("runPlan() error: %v", err)
	}
	for _, f := range []string{"plan.json", "plan.yaml"} {
		if _, err := os.Stat(filepath.Join(dir, ".envpipe-output", f)); err != nil {
			t.Errorf("missing %s: %v", f, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, ".envpipe-output", "result.json")); err == nil {
		t.Error("plan --write must not provision")
	}
	if !strings.Contains(out.String(), `"id": "WebPipeline"`) {
		t.Errorf("output missing plan:\n%s", out.String())
	}
}

func TestRunSynth_Memory(t *testing.T) {
	dir := t.TempDir()
	useConfig(t, writeTestDefinition(t, dir, testDefinition))
	captureStdout(t)

	oldEngine, oldOut, oldPar := engineName, outputDir, parallelism
	defer func() { engineName, outputDir, parallelism = oldEngine, oldOut, oldPar }()
	engineName = "memory"
	outputDir = "."
	parallelism = 2

	if err := runSynth(nil, nil); err != nil {
		t.Fatalf("runSynth() error: %v", err)
	}

	outDir := filepath.Join(dir, ".envpipe-output")
	for _, f := range []string{"plan.json", "plan.yaml", "result.json", "build-manifest.json"} {
		if _, err := os.Stat(filepath.Join(outDir, f)); err != nil {
			t.Errorf("missing %s: %v", f, err)
		}
	}

	data, err := os.ReadFile(filepath.Join(outDir, "build-manifest.json"))
	if err != nil {
		t.Fatal(err)
	}
	var manifest map[string]any
	if err := json.Unmarshal(data, &manifest); err != nil {
		t.Fatal(err)
	}
	if manifest["pipeline_id"] != "WebPipeline" {
		t.Errorf("pipeline_id = %v", manifest["pipeline_id"])
	}
}

func TestRunSynth_UnknownEngine(t *testing.T) {
	useConfig(t, writeTestDefinition(t, t.TempDir(), testDefinition))

	oldEngine := engineName
	defer func() { engineName = oldEngine }()
	engineName = "terraform"

	err := runSynth(nil, nil)
	if err == nil || !strings.Contains(err.Error(), "unknown engine") {
		t.Fatalf("runSynth() error = %v, want unknown engine", err)
	}
}

func TestRunSynth_InvalidDefinition(t *testing.T) {
	useConfig(t, writeTestDefinition(t, t.TempDir(), strings.Replace(testDefinition, "name: qa", "name: Prod", 1)))

	oldEngine, oldOut := engineName, outputDir
	defer func() { engineName, outputDir = oldEngine, oldOut }()
	engineName = "memory"
	outputDir = t.TempDir()

	if err := runSynth(nil, nil); err == nil {
		t.Fatal("expected error for colliding environment names")
	}
}

func TestRunPublish_MissingCredentials(t *testing.T) {
	dir := t.TempDir()
	useConfig(t, writeTestDefinition(t, dir, testDefinition))
	t.Setenv("ENVPIPE_S3_ACCESS_KEY", "")

	oldDir := publishDir
	defer func() { publishDir = oldDir }()
	publishDir = dir

	err := runPublish(nil, nil)
	if err == nil || !strings.Contains(err.Error(), "access key") {
		t.Fatalf("runPublish() error = %v, want access key error", err)
	}
}

func TestRunPublish_NoOutput(t *testing.T) {
	dir := t.TempDir()
	useConfig(t, writeTestDefinition(t, dir, testDefinition))

	oldDir, oldOut := publishDir, outputDir
	defer func() { publishDir, outputDir = oldDir, oldOut }()
	publishDir = ""
	outputDir = "."

	err := runPublish(nil, nil)
	if err == nil || !strings.Contains(err.Error(), "envpipe synth") {
		t.Fatalf("runPublish() error = %v", err)
	}
}

func TestVersion(t *testing.T) {
	out := captureStdout(t)
	SetVersionInfo("1.2.3", "abc123")
	defer SetVersionInfo("dev", "none")

	versionCmd.Run(versionCmd, nil)
	if got := out.String(); got != "envpipe 1.2.3 (commit: abc123)\n" {
		t.Errorf("version output = %q", got)
	}
}
