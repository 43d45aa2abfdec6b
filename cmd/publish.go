package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/initializ/envpipe/objectstore"
	"github.com/initializ/envpipe/util"
)

var (
	publishDir    string
	publishPrefix string
	publishBucket string
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Upload synth output to an S3-compatible bucket",
	Long: "publish uploads every file in the synth output directory. Connection settings come from " +
		"ENVPIPE_S3_ENDPOINT, ENVPIPE_S3_ACCESS_KEY, ENVPIPE_S3_SECRET_KEY, ENVPIPE_S3_REGION, " +
		"ENVPIPE_S3_USE_SSL and ENVPIPE_S3_BUCKET.",
	RunE: runPublish,
}

func init() {
	publishCmd.Flags().StringVar(&publishDir, "dir", "", "directory to upload (default: the synth output directory)")
	publishCmd.Flags().StringVar(&publishPrefix, "prefix", "", "object key prefix (default: the pipeline name, slugified)")
	publishCmd.Flags().StringVar(&publishBucket, "bucket", "", "bucket (overrides ENVPIPE_S3_BUCKET)")
}

func runPublish(cmd *cobra.Command, args []string) error {
	cfgPath, cfg, err := loadConfig()
	if err != nil {
		return err
	}

	dir := publishDir
	if dir == "" {
		dir = resolveOutputDir(cfgPath)
	}
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("synth output not found (run 'envpipe synth' first): %w", err)
	}
	prefix := publishPrefix
	if prefix == "" {
		prefix = util.Slugify(cfg.Name)
	}

	storeCfg, err := objectstore.ConfigFromEnv()
	if err != nil {
		return fmt.Errorf("object store config: %w", err)
	}
	if publishBucket != "" {
		storeCfg.Bucket = publishBucket
	}
	client, err := objectstore.NewClient(storeCfg)
	if err != nil {
		return fmt.Errorf("creating object store client: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	keys, err := objectstore.PublishDir(ctx, client, storeCfg, dir, prefix)
	log := newLogger("publish")
	for _, k := range keys {
		log.Debug("uploaded", map[string]any{"bucket": storeCfg.Bucket, "key": k})
	}
	if err != nil {
		return fmt.Errorf("publish failed: %w", err)
	}

	fmt.Fprintf(stdout, "Published %d file(s) to s3://%s/%s\n", len(keys), storeCfg.Bucket, prefix)
	return nil
}
