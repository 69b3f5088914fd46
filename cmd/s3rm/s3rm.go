package s3rm

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/wal-g/s3rm/internal/config"
	"github.com/wal-g/s3rm/internal/statistics"
	"github.com/wal-g/s3rm/internal/storagetools"
	"github.com/wal-g/s3rm/internal/storages/s3"
	"github.com/wal-g/tracelog"
)

var ShortDescription = "Bulk deletion of the keys under an S3 prefix"

// These variables are here only to show current version. They are set in makefile during build process
var s3rmVersion = "devel"
var gitRevision = "devel"
var buildDate = "devel"

var cmd = &cobra.Command{
	Use:   "s3rm",
	Short: ShortDescription,
	Long: `s3rm lists the keys under a prefix of a bucket and deletes them with parallel batch requests,
listing again until the prefix is empty.

Deleted keys cannot be recovered. Unless --force is given, the number of keys found by the
first listing is shown and a confirmation is asked before anything is deleted.`,
	Version: strings.Join([]string{s3rmVersion, gitRevision, buildDate}, "\t"),
	Args:    cobra.NoArgs,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		err := config.ConfigureLogging(viper.GetViper())
		tracelog.ErrorLogger.FatalOnError(err)
		config.LogSettings(viper.GetViper())
	},
	Run: func(cmd *cobra.Command, args []string) {
		options, err := config.NewOptions(viper.GetViper())
		tracelog.ErrorLogger.FatalOnError(err)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		store, factory, err := s3.Configure(options.S3Config())
		tracelog.ErrorLogger.FatalOnError(err)

		report, err := storagetools.HandleRemove(ctx, options, store, factory, os.Stdin, os.Stdout)
		statistics.PushMetrics(viper.GetString(config.StatsdAddressSetting),
			viper.GetStringMapString(config.StatsdExtraTagsSetting))
		tracelog.ErrorLogger.FatalOnError(err)

		if options.Strict && report.HasFailures() {
			tracelog.ErrorLogger.Fatalf("%d keys and %d batches could not be deleted",
				len(report.KeyErrors), len(report.Errors))
		}
	},
}

func Execute() {
	if err := cmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(config.InitConfig)

	cmd.PersistentFlags().StringVar(&config.CfgFile, "config", "", "config file (default is $HOME/.s3rm.yaml)")
	cmd.InitDefaultVersionFlag()
	config.AddFlags(cmd.Flags(), viper.GetViper())
}
