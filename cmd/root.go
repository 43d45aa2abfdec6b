// Package cmd implements the envpipe CLI commands.
package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/initializ/envpipe/config"
	"github.com/initializ/envpipe/logging"
	"github.com/initializ/envpipe/types"
)

var (
	cfgFile   string
	verbose   bool
	outputDir string
	logJSON   bool

	appVersion = "dev"
	appCommit  = "none"

	// stdout receives command output; logs and diagnostics go to stderr.
	stdout io.Writer = os.Stdout
)

var rootCmd = &cobra.Command{
	Use:   "envpipe",
	Short: "envpipe compiles environment specs into delivery pipelines",
	Long: "envpipe turns a list of deployment environments into one delivery pipeline: " +
		"a build-and-deploy pipeline for generic services, or a CDN-backed pipeline for static front ends.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "envpipe.yaml", "pipeline definition file (yaml, json or toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output-dir", "o", ".", "output directory")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "write logs as JSON")

	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(synthCmd)
	rootCmd.AddCommand(publishCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// SetVersionInfo sets the version and commit for display.
func SetVersionInfo(version, commit string) {
	appVersion = version
	appCommit = commit
	rootCmd.Version = version
	rootCmd.SetVersionTemplate(fmt.Sprintf("envpipe %s (commit: %s)\n", version, commit))
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newLogger returns the CLI logger scoped to the running command.
func newLogger(command string) logging.Logger {
	return logging.New(os.Stderr, logging.Options{
		Name:    "envpipe",
		Verbose: verbose,
		JSON:    logJSON,
	}).Named(command)
}

func resolveConfigPath() (string, error) {
	if filepath.IsAbs(cfgFile) {
		return cfgFile, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting working directory: %w", err)
	}
	return filepath.Join(wd, cfgFile), nil
}

func loadConfig() (string, *types.PipelineConfig, error) {
	cfgPath, err := resolveConfigPath()
	if err != nil {
		return "", nil, err
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return "", nil, fmt.Errorf("loading config: %w", err)
	}
	return cfgPath, cfg, nil
}

// resolveOutputDir maps the default "." to .envpipe-output next to the
// definition file.
func resolveOutputDir(cfgPath string) string {
	if outputDir == "." {
		return filepath.Join(filepath.Dir(cfgPath), ".envpipe-output")
	}
	return outputDir
}
