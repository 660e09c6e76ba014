package main

import (
	"fmt"
	"io"
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/hanpama/usergraph/internal/executor"
	"github.com/hanpama/usergraph/internal/language"
	"github.com/hanpama/usergraph/internal/resolve"
	"github.com/hanpama/usergraph/internal/schema"
	"github.com/hanpama/usergraph/internal/store"
	"github.com/hanpama/usergraph/internal/store/memstore"
	"github.com/hanpama/usergraph/internal/usergraph"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func newSchemaCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the schema in SDL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sch, err := usergraph.NewSchema(memstore.New())
			if err != nil {
				return errors.Wrap(err, "build schema")
			}
			sdl := schema.Render(sch)
			out, _ := cmd.Flags().GetString("out")
			if out == "" {
				_, err := io.WriteString(cmd.OutOrStdout(), sdl)
				return err
			}
			return os.WriteFile(out, []byte(sdl), 0o644)
		},
	}
	cmd.Flags().String("out", "", "write the SDL to this file instead of stdout")
	return cmd
}

func newQueryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query [document]",
		Short: "Execute one GraphQL document against the configured store",
		Example: `  usergraph query '{ user(id: "23") { firstName company { name } } }'
  echo 'mutation { addUser(firstName: "Ann", age: 30) { id } }' | usergraph query -`,
		Args: cobra.ExactArgs(1),
		RunE: runQuery,
	}
	cmd.Flags().String("variables", "", "variables as a JSON object")
	cmd.Flags().String("operation", "", "operation name to run")
	addStoreFlags(cmd.Flags())
	return cmd
}

func runQuery(cmd *cobra.Command, args []string) error {
	v, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(v)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	source := args[0]
	if source == "-" {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return errors.Wrap(err, "read document")
		}
		source = string(b)
	}
	vars := map[string]any{}
	if raw := v.GetString("variables"); raw != "" {
		if err := json.UnmarshalFromString(raw, &vars); err != nil {
			return errors.Wrap(err, "parse variables")
		}
	}
	doc, err := language.ParseQuery(source)
	if err != nil {
		return errors.Wrap(err, "parse document")
	}

	ctx := cmd.Context()
	s, err := openStore(ctx, v, logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close(s) }()
	sch, err := usergraph.NewSchema(s)
	if err != nil {
		return errors.Wrap(err, "build schema")
	}

	exec := executor.NewExecutor(resolve.NewRuntime(sch, resolve.WithLogger(logger)), sch)
	res := exec.ExecuteRequest(ctx, doc, v.GetString("operation"), vars, nil)
	out, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	if len(res.Errors) > 0 {
		return errors.Errorf("%d error(s) during execution", len(res.Errors))
	}
	return nil
}
