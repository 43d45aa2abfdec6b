package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/initializ/envpipe/build"
	"github.com/initializ/envpipe/config"
	"github.com/initializ/envpipe/engine"
	"github.com/initializ/envpipe/engine/cdk"
	"github.com/initializ/envpipe/engine/memory"
	"github.com/initializ/envpipe/pipeline"
	"github.com/initializ/envpipe/types"
	"github.com/initializ/envpipe/util"
)

var (
	engineName  string
	parallelism int
	account     string
	region      string
)

var synthCmd = &cobra.Command{
	Use:   "synth",
	Short: "Compile the pipeline definition and provision it with an engine",
	Long: "synth validates and compiles the definition, writes plan.json and plan.yaml, " +
		"hands the plan to an engine and writes result.json and build-manifest.json. " +
		"The cdk engine also writes a CloudFormation cloud assembly to cdk.out.",
	RunE: runSynth,
}

func init() {
	synthCmd.Flags().StringVar(&engineName, "engine", "memory", "provisioning engine: memory or cdk")
	synthCmd.Flags().IntVar(&parallelism, "parallelism", 0, "environments provisioned at once (default $ENVPIPE_PARALLELISM or 4)")
	synthCmd.Flags().StringVar(&account, "account", "", "AWS account for the cdk engine")
	synthCmd.Flags().StringVar(&region, "region", "", "AWS region for the cdk engine")
}

func runSynth(cmd *cobra.Command, args []string) error {
	cfgPath, cfg, err := loadConfig()
	if err != nil {
		return err
	}
	outDir := resolveOutputDir(cfgPath)

	workers := parallelism
	if workers <= 0 {
		if workers, err = config.Int(config.EnvParallelism, 4); err != nil {
			return err
		}
	}

	eng, err := newEngine(engineName, cfg, outDir)
	if err != nil {
		return err
	}
	// jsii runs on a single kernel; concurrent calls only queue on its lock.
	if engineName == "cdk" {
		workers = 1
	}

	bc := pipeline.NewBuildContext(pipeline.Options{
		ConfigPath:  cfgPath,
		OutputDir:   outDir,
		Parallelism: workers,
	})
	bc.Config = cfg
	bc.Engine = eng
	bc.Verbose = verbose
	bc.Logger = newLogger("synth")

	p := pipeline.New(build.SynthStages()...)
	if err := p.Run(context.Background(), bc); err != nil {
		return fmt.Errorf("synth failed: %w", err)
	}

	for _, w := range bc.Warnings {
		fmt.Fprintf(os.Stderr, "WARNING: %s\n", w)
	}

	fmt.Fprintf(stdout, "Synth complete. Output: %s\n", outDir)
	return nil
}

func newEngine(name string, cfg *types.PipelineConfig, outDir string) (engine.Engine, error) {
	switch name {
	case "memory":
		return memory.New(), nil
	case "cdk":
		stack, err := util.Derive(cfg.Name, "Stack")
		if err != nil {
			return nil, fmt.Errorf("deriving stack name: %w", err)
		}
		return cdk.New(cdk.Options{
			StackName: stack,
			Outdir:    filepath.Join(outDir, "cdk.out"),
			Account:   account,
			Region:    region,
		}), nil
	default:
		return nil, fmt.Errorf("unknown engine %q (known: memory, cdk)", name)
	}
}
