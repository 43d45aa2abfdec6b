// Package build holds the stages of the synth flow: validate the definition,
// compile it, write the plan, provision it and write a manifest.
package build

import "github.com/initializ/envpipe/pipeline"

// SynthStages returns the stages of a full synth, in order.
func SynthStages() []pipeline.Stage {
	return []pipeline.Stage{
		&ValidateStage{},
		&CompileStage{},
		&PlanFileStage{},
		&ProvisionStage{},
		&ManifestStage{},
	}
}

// PlanStages returns the stages that stop after writing the plan.
func PlanStages() []pipeline.Stage {
	return []pipeline.Stage{
		&ValidateStage{},
		&CompileStage{},
		&PlanFileStage{},
	}
}
