// Command usergraph serves the users/companies GraphQL API and the record
// stores behind it.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/hanpama/usergraph/internal/logging"
)

var version = "dev"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:     "usergraph",
		Short:   "GraphQL server for users and companies",
		Version: version,
		Long: `usergraph serves a GraphQL API over users and the companies they
work at. Records live in a pluggable store: in memory, a json-server style
REST service, an embedded badger database or a gRPC record service.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringP("config", "c", "", "config file (yaml, json or toml)")
	root.PersistentFlags().String("log.level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().String("log.format", "json", "log format (json, console)")
	root.PersistentFlags().String("log.file", "", "also write logs to this file")

	root.AddCommand(
		newServeCommand(),
		newSchemaCommand(),
		newQueryCommand(),
		newStoreServerCommand(),
		newVersionCommand(),
	)
	return root
}

// loadConfig binds cmd's flags into a fresh viper instance. Values resolve
// from flags, then USERGRAPH_* environment variables, then the config file.
func loadConfig(cmd *cobra.Command) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("USERGRAPH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, errors.Wrap(err, "bind flags")
	}
	if err := v.BindPFlags(cmd.InheritedFlags()); err != nil {
		return nil, errors.Wrap(err, "bind flags")
	}
	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", file)
		}
	}
	return v, nil
}

func newLogger(v *viper.Viper) (*zap.Logger, error) {
	return logging.New(logging.Config{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
		File:   v.GetString("log.file"),
	})
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "usergraph", version)
		},
	}
}
