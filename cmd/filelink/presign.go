package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/uniedit/filelink/internal/app"
	"github.com/uniedit/filelink/internal/model"
	"github.com/uniedit/filelink/internal/shared/config"
)

type presignOptions struct {
	dir         string
	bucket      string
	envFolder   bool
	hours       int
	roleARN     string
	sessionName string
	region      string
}

var presignOpts presignOptions

// presignCmd uploads one file and prints a link to it
var presignCmd = &cobra.Command{
	Use:   "presign [file]",
	Short: "Upload a file and print a presigned download link",
	Long: `Upload a file from the local directory and print a presigned GET link.

Examples:
  # Upload assets/report.csv and link it for 72 hours
  filelink presign report.csv

  # Use a date-partitioned key and a 5 hour link
  filelink presign report.csv --env-folder --hours 5

  # Sign the link with an assumed role (capped at 36 hours)
  filelink presign report.csv --role-arn arn:aws:iam::123456789012:role/reports`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPresign,
}

func init() {
	f := presignCmd.Flags()
	f.StringVarP(&presignOpts.dir, "dir", "d", "", "local directory holding the file (default from upload.local_dir)")
	f.StringVarP(&presignOpts.bucket, "bucket", "b", "", "target bucket (default from storage.bucket)")
	f.BoolVar(&presignOpts.envFolder, "env-folder", false, "store under <env>/<YYYY>/<MM>/<DD>/")
	f.IntVar(&presignOpts.hours, "hours", 0, "link lifetime in hours (default from upload.link_duration)")
	f.StringVar(&presignOpts.roleARN, "role-arn", "", "sign the link with credentials for this role")
	f.StringVar(&presignOpts.sessionName, "session-name", "", "role session name")
	f.StringVar(&presignOpts.region, "region", "", "region for the token service")
	rootCmd.AddCommand(presignCmd)
}

func runPresign(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFrom(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyPresignOptions(cfg, &presignOpts)

	domain, cleanup, err := app.InitializeFileLink(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer cleanup()

	var fileName string
	if len(args) > 0 {
		fileName = args[0]
	}

	req := &model.UploadRequest{
		FileName:     fileName,
		LocalDir:     cfg.Upload.LocalDir,
		UseEnvFolder: presignOpts.envFolder,
		LinkDuration: model.HoursToDuration(presignOpts.hours),
	}

	var link *model.PresignedURL
	if cfg.STS.RoleARN != "" {
		link, err = domain.PresignFileWithRole(cmd.Context(), req, model.RoleRequest{
			Region:      cfg.STS.Region,
			RoleARN:     cfg.STS.RoleARN,
			SessionName: cfg.STS.SessionName,
		})
	} else {
		link, err = domain.PresignFile(cmd.Context(), req)
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), link.URL)
	return nil
}

// applyPresignOptions lets command line flags override loaded configuration.
func applyPresignOptions(cfg *config.Config, opts *presignOptions) {
	if opts.dir != "" {
		cfg.Upload.LocalDir = opts.dir
	}
	if opts.bucket != "" {
		cfg.Storage.Bucket = opts.bucket
	}
	if opts.roleARN != "" {
		cfg.STS.RoleARN = opts.roleARN
	}
	if opts.sessionName != "" {
		cfg.STS.SessionName = opts.sessionName
	}
	if opts.region != "" {
		cfg.STS.Region = opts.region
	}
}
