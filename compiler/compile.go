// Package compiler turns a list of environment specs into a pipeline plan.
// Everything here is pure: the same input always yields the same plan, and
// no provider is contacted.
package compiler

import (
	"fmt"

	"github.com/initializ/envpipe/plan"
	"github.com/initializ/envpipe/types"
)

// Compile dispatches a parsed pipeline definition to the compiler for its
// variant.
func Compile(cfg *types.PipelineConfig) (*plan.Pipeline, error) {
	base := BasePipelineProps{
		Name:               cfg.Name,
		Variant:            cfg.Variant,
		ArtifactsBucket:    cfg.Artifacts.Bucket,
		ArtifactsSourceKey: cfg.Artifacts.SourceKey,
		NotificationsType:  cfg.Notifications.Type,
		NotificationTopic:  cfg.Notifications.Topic,
	}

	switch cfg.Variant {
	case types.VariantGeneric:
		return NewMultiEnvPipeline(MultiEnvPipelineProps{
			BasePipelineProps: base,
			Environments:      cfg.Environments,
		})
	case types.VariantFrontendCDN:
		return NewFrontendCDNPipeline(FrontendCDNPipelineProps{
			BasePipelineProps: base,
			Environments:      cfg.Environments,
			Certificate:       cfg.Certificate,
			HostedZone:        cfg.HostedZone,
		})
	default:
		return nil, configErr("", "variant", fmt.Errorf("unknown variant %q", cfg.Variant))
	}
}
