package validate

import (
	"fmt"
	"strings"

	"github.com/initializ/envpipe/types"
	"github.com/initializ/envpipe/util"
)

// ValidationResult holds errors and warnings from config validation.
type ValidationResult struct {
	Errors   []string
	Warnings []string
}

// IsValid returns true if there are no validation errors.
func (r *ValidationResult) IsValid() bool {
	return len(r.Errors) == 0
}

func (r *ValidationResult) errorf(format string, a ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, a...))
}

func (r *ValidationResult) warnf(format string, a ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, a...))
}

// ValidatePipelineConfig checks a PipelineConfig for errors and warnings.
// Every environment is checked, so one bad environment does not hide the
// problems of another.
func ValidatePipelineConfig(cfg *types.PipelineConfig) *ValidationResult {
	r := &ValidationResult{}

	if cfg.Name == "" {
		r.errorf("name is required")
	}
	if cfg.Variant != types.VariantGeneric && cfg.Variant != types.VariantFrontendCDN {
		r.errorf("variant %q must be one of: generic, frontend-cdn", cfg.Variant)
	}
	if len(cfg.Environments) == 0 {
		r.errorf("at least one environment is required")
	}

	if cfg.Name != "" {
		if _, err := util.Normalize(cfg.Name); err != nil {
			r.errorf("name: %v", err)
		}
	}
	if cfg.Artifacts.SourceKey == "" {
		r.errorf("artifacts.sourceKey is required")
	}

	switch cfg.Notifications.Type {
	case "", types.NotificationsNone:
		if cfg.Notifications.Topic != "" {
			r.warnf("notifications.topic is set but notifications.type is none; the topic is ignored")
		}
	case types.NotificationsSNS:
		if cfg.Notifications.Topic == "" {
			r.errorf("notifications.topic is required when notifications.type is sns")
		}
	default:
		r.errorf("notifications.type %q must be one of: none, sns", cfg.Notifications.Type)
	}

	seen := make(map[string]string, len(cfg.Environments))
	for i, env := range cfg.Environments {
		prefix := fmt.Sprintf("environments[%d]", i)
		if env.Name != "" {
			prefix = fmt.Sprintf("environments[%d] (%s)", i, env.Name)
		}

		id, err := util.Normalize(env.Name)
		if err != nil {
			r.errorf("%s: name: %v", prefix, err)
		} else if other, dup := seen[id]; dup {
			r.errorf("%s: name normalizes to %q, which collides with environment %q", prefix, id, other)
		} else {
			seen[id] = env.Name
		}

		switch cfg.Variant {
		case types.VariantGeneric:
			validateGenericEnv(r, prefix, env)
		case types.VariantFrontendCDN:
			validateFrontendEnv(r, prefix, env)
		}
	}

	if cfg.Variant == types.VariantFrontendCDN {
		if cfg.Certificate == "" {
			r.errorf("certificate is required for frontend-cdn pipelines")
		}
		if needsHostedZone(cfg) && cfg.HostedZone.IsZero() {
			r.errorf("hostedZone is required when any environment uses domainNameRegistrar %s", types.RegistrarAWS)
		}
	}

	return r
}

func validateGenericEnv(r *ValidationResult, prefix string, env types.EnvironmentSpec) {
	problems, err := ValidateBuildSpec(env.BuildSpec)
	if err != nil {
		r.errorf("%s: buildSpec: %v", prefix, err)
	}
	for _, p := range problems {
		r.errorf("%s: buildSpec: %s", prefix, p)
	}
	for _, name := range types.DeployCredentialVariables {
		if _, ok := env.RuntimeVariables[name]; ok {
			r.errorf("%s: runtimeVariables: %s is reserved for the deploy credentials", prefix, name)
		}
	}
	if len(env.Aliases) > 0 || env.DomainNameRegistrar != "" {
		r.warnf("%s: CDN settings are ignored for generic pipelines", prefix)
	}
}

func validateFrontendEnv(r *ValidationResult, prefix string, env types.EnvironmentSpec) {
	if len(env.Aliases) == 0 {
		r.errorf("%s: aliases must contain at least one domain name", prefix)
	}
	for j, a := range env.Aliases {
		if strings.TrimSpace(a) == "" {
			r.errorf("%s: aliases[%d] is empty", prefix, j)
		}
	}
	if env.CloudfrontPriceClass != "" && !types.ValidPriceClass(env.CloudfrontPriceClass) {
		r.errorf("%s: cloudfrontPriceClass %q must be one of: PriceClass_100, PriceClass_200, PriceClass_All", prefix, env.CloudfrontPriceClass)
	}
	if env.DomainNameRegistrar == "" {
		r.warnf("%s: domainNameRegistrar is empty; the alias must be registered externally", prefix)
	}
	if env.BuildSpec != nil {
		r.warnf("%s: buildSpec is ignored for frontend-cdn pipelines", prefix)
	}
	if env.AdminPermissions {
		r.warnf("%s: adminPermissions has no effect for frontend-cdn pipelines", prefix)
	}
}

func needsHostedZone(cfg *types.PipelineConfig) bool {
	for _, env := range cfg.Environments {
		if env.DomainNameRegistrar == types.RegistrarAWS {
			return true
		}
	}
	return false
}
