package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	apperrors "github.com/uniedit/filelink/internal/shared/errors"
)

var cfgFile string

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "filelink",
	Short: "Upload files to object storage and hand out presigned download links",
	Long: `filelink uploads local files to an S3 bucket and returns time-limited
download links. Links can be signed with temporary credentials from an
assumed role.

Example:
  filelink presign report.csv --bucket reports --hours 5
  filelink presign report.csv --role-arn arn:aws:iam::123456789012:role/reports
  filelink serve --config configs/config.yaml`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./config.yaml)")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(apperrors.ExitCode(err))
	}
}
