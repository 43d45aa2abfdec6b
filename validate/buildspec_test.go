package validate

import (
	"strings"
	"testing"
)

func validBuildSpec() map[string]any {
	return map[string]any{
		"version": 0.1,
		"phases": map[string]any{
			"install": map[string]any{
				"commands": []any{"echo Downloading JUnit JAR file...", "mkdir lib"},
			},
			"build": map[string]any{
				"commands": []any{"echo Build started on `date`", "ant"},
			},
		},
		"artifacts": map[string]any{
			"files": []any{"build/jar/HelloWorld.zip"},
		},
	}
}

func TestValidateBuildSpec_Valid(t *testing.T) {
	problems, err := ValidateBuildSpec(validBuildSpec())
	if err != nil {
		t.Fatalf("ValidateBuildSpec error: %v", err)
	}
	if len(problems) > 0 {
		t.Errorf("expected no problems, got: %v", problems)
	}
}

func TestValidateBuildSpec_TypedSlices(t *testing.T) {
	spec := map[string]any{
		"version": "0.2",
		"phases": map[string]any{
			"build": map[string]any{"commands": []string{"make deploy"}},
		},
	}
	problems, err := ValidateBuildSpec(spec)
	if err != nil {
		t.Fatalf("ValidateBuildSpec error: %v", err)
	}
	if len(problems) > 0 {
		t.Errorf("expected no problems, got: %v", problems)
	}
}

func TestValidateBuildSpec_Nil(t *testing.T) {
	problems, err := ValidateBuildSpec(nil)
	if err != nil {
		t.Fatalf("ValidateBuildSpec error: %v", err)
	}
	if len(problems) != 1 {
		t.Fatalf("expected 1 problem, got %v", problems)
	}
}

func TestValidateBuildSpec_Malformed(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(map[string]any)
	}{
		{"missing phases", func(s map[string]any) { delete(s, "phases") }},
		{"missing version", func(s map[string]any) { delete(s, "version") }},
		{"unsupported version", func(s map[string]any) { s["version"] = 3 }},
		{"empty phases", func(s map[string]any) { s["phases"] = map[string]any{} }},
		{"unknown phase", func(s map[string]any) {
			s["phases"] = map[string]any{"deploy": map[string]any{"commands": []any{"x"}}}
		}},
		{"phase without commands", func(s map[string]any) {
			s["phases"] = map[string]any{"build": map[string]any{}}
		}},
		{"non-string command", func(s map[string]any) {
			s["phases"] = map[string]any{"build": map[string]any{"commands": []any{42}}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := validBuildSpec()
			tt.mutate(spec)
			problems, err := ValidateBuildSpec(spec)
			if err != nil {
				t.Fatalf("ValidateBuildSpec error: %v", err)
			}
			if len(problems) == 0 {
				t.Error("expected problems for malformed build spec")
			}
		})
	}
}

func TestValidateBuildSpec_UnterminatedQuote(t *testing.T) {
	spec := map[string]any{
		"version": 0.2,
		"phases": map[string]any{
			"build": map[string]any{"commands": []any{"ok", `echo "unterminated`}},
		},
	}
	problems, err := ValidateBuildSpec(spec)
	if err != nil {
		t.Fatalf("ValidateBuildSpec error: %v", err)
	}
	if len(problems) != 1 {
		t.Fatalf("expected 1 problem, got %v", problems)
	}
	if !strings.HasPrefix(problems[0], "phases.build.commands[1]") {
		t.Errorf("problem = %q, want it to name the offending command", problems[0])
	}
}
