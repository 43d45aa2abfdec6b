// Package types holds configuration types for pipeline definitions.
package types

import (
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Variant selects which pipeline compiler handles a definition.
type Variant string

const (
	VariantGeneric     Variant = "generic"
	VariantFrontendCDN Variant = "frontend-cdn"
)

// Registrar identifies who hosts the DNS zone for a CDN environment's aliases.
type Registrar string

// RegistrarAWS means the zone is hosted in Route 53 and alias records are
// generated. Any other value is an external registrar.
const RegistrarAWS Registrar = "AWS"

// NotificationsType selects how pipeline events are delivered.
type NotificationsType string

const (
	NotificationsNone NotificationsType = "none"
	NotificationsSNS  NotificationsType = "sns"
)

// CloudFront price classes.
const (
	PriceClass100 = "PriceClass_100"
	PriceClass200 = "PriceClass_200"
	PriceClassAll = "PriceClass_All"
)

// ValidPriceClass reports whether s names a CloudFront price class.
func ValidPriceClass(s string) bool {
	switch s {
	case PriceClass100, PriceClass200, PriceClassAll:
		return true
	}
	return false
}

// DefaultRootObject is served for "/" and for error responses when an
// environment does not name its own documents.
const DefaultRootObject = "index.html"

// PipelineConfig represents a complete pipeline definition file.
type PipelineConfig struct {
	Name          string            `yaml:"name" toml:"name" json:"name"`
	Variant       Variant           `yaml:"variant" toml:"variant" json:"variant"`
	Artifacts     ArtifactsRef      `yaml:"artifacts,omitempty" toml:"artifacts" json:"artifacts"`
	Notifications NotificationsRef  `yaml:"notifications,omitempty" toml:"notifications" json:"notifications"`
	Certificate   string            `yaml:"certificate,omitempty" toml:"certificate" json:"certificate,omitempty"`
	HostedZone    HostedZoneRef     `yaml:"hostedZone,omitempty" toml:"hostedZone" json:"hostedZone"`
	Environments  []EnvironmentSpec `yaml:"environments" toml:"environments" json:"environments"`
}

// ArtifactsRef locates the source artifact every deploy action consumes.
type ArtifactsRef struct {
	Bucket    string `yaml:"bucket" toml:"bucket" json:"bucket"`
	SourceKey string `yaml:"sourceKey" toml:"sourceKey" json:"sourceKey"`
}

// NotificationsRef configures pipeline event delivery.
type NotificationsRef struct {
	Type  NotificationsType `yaml:"type,omitempty" toml:"type" json:"type,omitempty"`
	Topic string            `yaml:"topic,omitempty" toml:"topic" json:"topic,omitempty"`
}

// HostedZoneRef identifies an existing DNS zone.
type HostedZoneRef struct {
	ID   string `yaml:"id,omitempty" toml:"id" json:"id,omitempty"`
	Name string `yaml:"name,omitempty" toml:"name" json:"name,omitempty"`
}

// DeployCredentialsRef names the parameters of a generic environment's
// deploy key pair.
type DeployCredentialsRef struct {
	AccessKeyIDParameter     string `yaml:"accessKeyIdParameter,omitempty" toml:"accessKeyIdParameter" json:"accessKeyIdParameter,omitempty"`
	SecretAccessKeyParameter string `yaml:"secretAccessKeyParameter,omitempty" toml:"secretAccessKeyParameter" json:"secretAccessKeyParameter,omitempty"`
}

// DeployCredentialParameters returns the environment's deploy-credential
// parameter names, defaulting unset ones to
// /<name>/DootstrapperCoreDeployAccessKeyId and
// /<name>/DootstrapperCoreDeploySecretAccessKey.
func (e EnvironmentSpec) DeployCredentialParameters() DeployCredentialsRef {
	ref := e.DeployCredentials
	if ref.AccessKeyIDParameter == "" {
		ref.AccessKeyIDParameter = "/" + e.Name + "/DootstrapperCoreDeployAccessKeyId"
	}
	if ref.SecretAccessKeyParameter == "" {
		ref.SecretAccessKeyParameter = "/" + e.Name + "/DootstrapperCoreDeploySecretAccessKey"
	}
	return ref
}

// DeployCredentialVariables are the build environment variables the deploy
// key pair is exposed under. Runtime variables may not reuse them.
var DeployCredentialVariables = []string{"AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY"}

// IsZero reports whether no hosted zone was configured.
func (h HostedZoneRef) IsZero() bool { return h.ID == "" && h.Name == "" }

// EnvironmentSpec describes one deployment target.
type EnvironmentSpec struct {
	Name             string            `yaml:"name" toml:"name" json:"name"`
	ApprovalRequired bool              `yaml:"approvalRequired,omitempty" toml:"approvalRequired" json:"approvalRequired,omitempty"`
	AdminPermissions bool              `yaml:"adminPermissions,omitempty" toml:"adminPermissions" json:"adminPermissions,omitempty"`
	BuildSpec        map[string]any    `yaml:"buildSpec,omitempty" toml:"buildSpec" json:"buildSpec,omitempty"`
	RuntimeVariables map[string]string `yaml:"runtimeVariables,omitempty" toml:"runtimeVariables" json:"runtimeVariables,omitempty"`
	// DeployCredentials names the SSM parameters holding the key pair the
	// build uses to deploy. Unset names default per environment.
	DeployCredentials DeployCredentialsRef `yaml:"deployCredentials,omitempty" toml:"deployCredentials" json:"deployCredentials,omitempty"`

	// CDN environments only.
	Aliases              []string  `yaml:"aliases,omitempty" toml:"aliases" json:"aliases,omitempty"`
	CloudfrontPriceClass string    `yaml:"cloudfrontPriceClass,omitempty" toml:"cloudfrontPriceClass" json:"cloudfrontPriceClass,omitempty"`
	DefaultRootObject    string    `yaml:"defaultRootObject,omitempty" toml:"defaultRootObject" json:"defaultRootObject,omitempty"`
	ErrorRootObject      string    `yaml:"errorRootObject,omitempty" toml:"errorRootObject" json:"errorRootObject,omitempty"`
	DomainNameRegistrar  Registrar `yaml:"domainNameRegistrar,omitempty" toml:"domainNameRegistrar" json:"domainNameRegistrar,omitempty"`
}

// ApplyDefaults fills optional fields with their documented defaults.
func (c *PipelineConfig) ApplyDefaults() {
	if c.Notifications.Type == "" {
		c.Notifications.Type = NotificationsNone
	}
	if c.Variant == VariantGeneric {
		for i := range c.Environments {
			env := &c.Environments[i]
			env.DeployCredentials = env.DeployCredentialParameters()
		}
		return
	}
	if c.Variant != VariantFrontendCDN {
		return
	}
	for i := range c.Environments {
		env := &c.Environments[i]
		if env.DefaultRootObject == "" {
			env.DefaultRootObject = DefaultRootObject
		}
		if env.ErrorRootObject == "" {
			env.ErrorRootObject = DefaultRootObject
		}
		if env.CloudfrontPriceClass == "" {
			env.CloudfrontPriceClass = PriceClass100
		}
	}
}

// ParsePipelineConfig parses raw YAML (or JSON) bytes into a PipelineConfig,
// applies defaults and validates required fields.
func ParsePipelineConfig(data []byte) (*PipelineConfig, error) {
	var cfg PipelineConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing pipeline config: %w", err)
	}
	return finish(&cfg)
}

// ParsePipelineConfigTOML parses raw TOML bytes into a PipelineConfig.
func ParsePipelineConfigTOML(data []byte) (*PipelineConfig, error) {
	var cfg PipelineConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing pipeline config: %w", err)
	}
	return finish(&cfg)
}

func finish(cfg *PipelineConfig) (*PipelineConfig, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("pipeline config: name is required")
	}
	switch cfg.Variant {
	case VariantGeneric, VariantFrontendCDN:
	case "":
		return nil, fmt.Errorf("pipeline config: variant is required")
	default:
		return nil, fmt.Errorf("pipeline config: unknown variant %q (known: generic, frontend-cdn)", cfg.Variant)
	}
	if len(cfg.Environments) == 0 {
		return nil, fmt.Errorf("pipeline config: at least one environment is required")
	}
	cfg.ApplyDefaults()
	return cfg, nil
}
