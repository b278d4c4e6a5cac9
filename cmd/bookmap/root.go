package main

import (
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/joseph-ayodele/bookmap/internal/common"
	"github.com/joseph-ayodele/bookmap/internal/export"
	"github.com/joseph-ayodele/bookmap/internal/jobclient"
)

// app is the state shared by every subcommand once flags and config are resolved.
type app struct {
	v       *viper.Viper
	cfgFile string

	cfg    *common.Config
	client *jobclient.Client
	export *export.Service
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}
	common.SetDefaults(a.v)

	root := &cobra.Command{
		Use:   "bookmap",
		Short: "Index a PDF with a BookMap server",
		Long: `bookmap uploads a PDF to a BookMap indexing server, follows the job until it
finishes, and prints the generated table of contents. The index and the rendered
page images can be downloaded alongside.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.bindFlags(cmd); err != nil {
				return err
			}
			return a.init()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (YAML)")
	pf.String("server", "http://localhost:5000", "base URL of the BookMap server")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")
	pf.String("log-format", "text", "log format (text or json)")
	bindTo(pf, "server", "server.base_url")
	bindTo(pf, "log-level", "log.level")
	bindTo(pf, "log-format", "log.format")

	root.AddCommand(
		newIndexCmd(a),
		newPagesCmd(a),
		newWatchCmd(a),
		newHealthCmd(a),
	)
	return root
}

// viperKey annotates a flag with the config key it overrides. Keys are bound only for the
// command that runs, so subcommands can share a key without clobbering each other.
const viperKey = "bookmap_config_key"

func bindTo(fl *pflag.FlagSet, name, key string) {
	cobra.CheckErr(fl.SetAnnotation(name, viperKey, []string{key}))
}

func (a *app) bindFlags(cmd *cobra.Command) error {
	var err error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		keys := f.Annotations[viperKey]
		if err != nil || len(keys) == 0 {
			return
		}
		err = a.v.BindPFlag(keys[0], f)
	})
	return err
}
