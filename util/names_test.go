package util

import (
	"errors"
	"testing"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Web Pipeline", "web-pipeline"},
		{"  Leading Spaces  ", "leading-spaces"},
		{"special!@#$%chars", "specialchars"},
		{"multiple---hyphens", "multiple-hyphens"},
		{"Hello   World", "hello-world"},
		{"my_pipeline", "mypipeline"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Slugify(tt.input); got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestPascalCase(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"test", "Test"},
		{"prod-eu", "ProdEu"},
		{"prod_eu", "ProdEu"},
		{"prodEu", "ProdEu"},
		{"PROD", "Prod"},
		{"PRODOrigin", "ProdOrigin"},
		{"OriginBucket", "OriginBucket"},
		{"stage 2", "Stage2"},
		{"v2Api", "V2Api"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := PascalCase(tt.input); got != tt.want {
				t.Errorf("PascalCase(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestDerive(t *testing.T) {
	tests := []struct {
		env, role string
		want      string
	}{
		{"test", "OriginBucket", "TestOriginBucket"},
		{"prod", "WebDistribution", "ProdWebDistribution"},
		{"staging-eu", "Deploy", "StagingEuDeploy"},
		{"qa", "PipelineProject", "QaPipelineProject"},
	}

	for _, tt := range tests {
		got, err := Derive(tt.env, tt.role)
		if err != nil {
			t.Fatalf("Derive(%q, %q) error: %v", tt.env, tt.role, err)
		}
		if got != tt.want {
			t.Errorf("Derive(%q, %q) = %q, want %q", tt.env, tt.role, got, tt.want)
		}
	}
}

func TestDerive_Deterministic(t *testing.T) {
	a, _ := Derive("prod-eu", "CnameRecord")
	b, _ := Derive("prod-eu", "CnameRecord")
	if a != b {
		t.Fatalf("Derive not deterministic: %q vs %q", a, b)
	}
}

func TestDerive_InvalidNames(t *testing.T) {
	for _, name := range []string{"", "   ", "1prod", "café", "prod!", "---"} {
		t.Run(name, func(t *testing.T) {
			_, err := Derive(name, "Deploy")
			if !errors.Is(err, ErrInvalidName) {
				t.Fatalf("Derive(%q) error = %v, want ErrInvalidName", name, err)
			}
		})
	}
}
