package pipeline

import (
	"github.com/initializ/envpipe/engine"
	"github.com/initializ/envpipe/logging"
	"github.com/initializ/envpipe/plan"
	"github.com/initializ/envpipe/types"
)

// BuildContext carries all state through the synth pipeline.
type BuildContext struct {
	Opts           Options
	Config         *types.PipelineConfig
	Plan           *plan.Pipeline
	Engine         engine.Engine
	Result         *engine.Result
	GeneratedFiles map[string]string // relPath -> absPath
	Warnings       []string
	Verbose        bool
	Logger         logging.Logger

	// Set by the provision stage when the engine writes its own output,
	// such as a CDK cloud assembly.
	AssemblyDir string
}

// NewBuildContext creates a BuildContext with the given options and
// initialized maps.
func NewBuildContext(opts Options) *BuildContext {
	return &BuildContext{
		Opts:           opts,
		GeneratedFiles: make(map[string]string),
		Logger:         logging.Nop(),
	}
}

// AddFile records a generated file in the build context.
func (bc *BuildContext) AddFile(relPath, absPath string) {
	bc.GeneratedFiles[relPath] = absPath
}

// AddWarning appends a warning message to the build context.
func (bc *BuildContext) AddWarning(msg string) {
	bc.Warnings = append(bc.Warnings, msg)
}
