package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/initializ/envpipe/build"
	"github.com/initializ/envpipe/compiler"
	"github.com/initializ/envpipe/pipeline"
	"github.com/initializ/envpipe/render"
	"github.com/initializ/envpipe/types"
	"github.com/initializ/envpipe/validate"
)

var (
	planFormat string
	planWrite  bool
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Compile the pipeline definition and print the plan",
	RunE:  runPlan,
}

func init() {
	planCmd.Flags().StringVar(&planFormat, "format", "text", "output format: text, json or yaml")
	planCmd.Flags().BoolVar(&planWrite, "write", false, "also write plan.json and plan.yaml to the output directory")
}

func runPlan(cmd *cobra.Command, args []string) error {
	cfgPath, cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if planWrite {
		return writePlan(cfgPath, cfg)
	}

	result := validate.ValidatePipelineConfig(cfg)
	for _, w := range result.Warnings {
		fmt.Fprintf(os.Stderr, "WARNING: %s\n", w)
	}
	if !result.IsValid() {
		for _, e := range result.Errors {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", e)
		}
		return fmt.Errorf("config validation failed: %d error(s)", len(result.Errors))
	}

	p, err := compiler.Compile(cfg)
	if err != nil {
		return fmt.Errorf("compiling: %w", err)
	}

	out, err := render.Encode(p, render.Format(planFormat))
	if err != nil {
		return err
	}
	_, err = stdout.Write(out)
	return err
}

func writePlan(cfgPath string, cfg *types.PipelineConfig) error {
	bc := pipeline.NewBuildContext(pipeline.Options{
		ConfigPath: cfgPath,
		OutputDir:  resolveOutputDir(cfgPath),
	})
	bc.Config = cfg
	bc.Verbose = verbose
	bc.Logger = newLogger("plan")

	if err := pipeline.New(build.PlanStages()...).Run(context.Background(), bc); err != nil {
		return fmt.Errorf("plan failed: %w", err)
	}
	for _, w := range bc.Warnings {
		fmt.Fprintf(os.Stderr, "WARNING: %s\n", w)
	}

	out, err := render.Encode(bc.Plan, render.Format(planFormat))
	if err != nil {
		return err
	}
	_, err = stdout.Write(out)
	return err
}
