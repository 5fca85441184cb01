// Command nmrstate replays spectra action logs and manages stored
// preferences.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	spectra "github.com/goliatone/go-spectra"
	"github.com/goliatone/go-spectra/filters"
	"github.com/goliatone/go-spectra/pkg/activity"
	"github.com/goliatone/go-spectra/pkg/activity/usersink"
	"github.com/goliatone/go-spectra/pkg/metrics"
	"github.com/goliatone/go-spectra/pkg/preferences"
	"github.com/goliatone/go-spectra/pkg/zaplog"
)

const (
	exitSuccess = 0
	exitError   = 1
)

type globalFlags struct {
	db         string
	defaults   string
	ruleEngine string
	verbose    bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitError)
	}
	os.Exit(exitSuccess)
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:           "nmrstate",
		Short:         "Replay spectra sessions and manage preferences",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.db, "db", "", "SQLite file holding preferences (empty keeps them in memory)")
	root.PersistentFlags().StringVar(&flags.defaults, "defaults", "", "YAML file with default preferences")
	root.PersistentFlags().StringVar(&flags.ruleEngine, "rules", "expr", "engine for filter applicability rules: expr, cel or js")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "log every dispatch to stderr")

	root.AddCommand(newReplayCmd(flags), newPrefsCmd(flags))
	return root
}

func newReplayCmd(flags *globalFlags) *cobra.Command {
	var sessionPath, actionsPath, metricsPath, auditPath, sessionID string
	var indent bool
	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Dispatch an action log and print the exported session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := newLogger(flags.verbose)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			resolver, closeKV, err := openResolver(flags)
			if err != nil {
				return err
			}
			defer closeKV()

			engine, err := newEngine(flags, logger)
			if err != nil {
				return err
			}

			var (
				initial *spectra.State
				actions []spectra.Action
			)
			group, _ := errgroup.WithContext(cmd.Context())
			group.Go(func() error {
				if sessionPath == "" {
					return nil
				}
				raw, err := os.ReadFile(sessionPath)
				if err != nil {
					return fmt.Errorf("read session: %w", err)
				}
				sess, err := engine.LoadSession(json.RawMessage(raw))
				if err != nil {
					return err
				}
				initial = sess.State
				return nil
			})
			group.Go(func() error {
				if actionsPath == "" {
					return nil
				}
				raw, err := os.ReadFile(actionsPath)
				if err != nil {
					return fmt.Errorf("read actions: %w", err)
				}
				actions, err = spectra.DecodeActionLog(raw)
				return err
			})
			if err := group.Wait(); err != nil {
				return err
			}

			dispatchLogger := spectra.DispatchLogger(logger)
			registry := prometheus.NewRegistry()
			if metricsPath != "" {
				cfg := metrics.DefaultConfig()
				cfg.Registry = registry
				collector, err := metrics.New(cfg)
				if err != nil {
					return err
				}
				dispatchLogger = spectra.DispatchLoggers{logger, collector}
			}

			storeOpts := []spectra.StoreOption{
				spectra.WithInitialState(initial),
				spectra.WithPreferences(resolver),
				spectra.WithDispatchLogger(dispatchLogger),
				spectra.WithSessionID(sessionID),
			}
			if auditPath != "" {
				audit, err := os.OpenFile(auditPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
				if err != nil {
					return fmt.Errorf("open audit log: %w", err)
				}
				defer audit.Close()
				hook := usersink.Hook{Sink: usersink.NewJSONLines(audit)}
				storeOpts = append(storeOpts, spectra.WithActivityHooks(activity.Hooks{hook}))
			}

			ctx := cmd.Context()
			store, err := spectra.NewStore(ctx, engine, storeOpts...)
			if store == nil {
				return err
			}
			state, err := store.DispatchAll(ctx, actions...)
			if err != nil {
				return err
			}
			if metricsPath != "" {
				if err := prometheus.WriteToTextfile(metricsPath, registry); err != nil {
					return fmt.Errorf("write metrics: %w", err)
				}
			}
			return writeJSON(cmd.OutOrStdout(), state.Export(), indent)
		},
	}
	cmd.Flags().StringVar(&sessionPath, "session", "", "session document to start from")
	cmd.Flags().StringVar(&actionsPath, "actions", "", "JSON array of {type, payload} actions")
	cmd.Flags().StringVar(&metricsPath, "metrics", "", "write dispatch metrics to this file in Prometheus text format")
	cmd.Flags().StringVar(&auditPath, "audit", "", "append change events to this file as JSON lines")
	cmd.Flags().StringVar(&sessionID, "session-id", "replay", "session id stamped on audit records")
	cmd.Flags().BoolVar(&indent, "indent", false, "indent the output")
	return cmd
}

func newPrefsCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Read or change stored preferences",
	}

	var workspace string
	var explain bool
	get := &cobra.Command{
		Use:   "get",
		Short: "Print the resolved preferences as YAML",
		RunE: func(cmd *cobra.Command, _ []string) error {
			resolver, closeKV, err := openResolver(flags)
			if err != nil {
				return err
			}
			defer closeKV()

			if explain {
				origins, err := resolver.Explain(cmd.Context(), workspace)
				if err != nil {
					return err
				}
				return yaml.NewEncoder(cmd.OutOrStdout()).Encode(origins)
			}

			var prefs preferences.Preferences
			if workspace != "" {
				prefs, err = resolver.LoadWorkspace(cmd.Context(), workspace)
			} else {
				prefs, err = resolver.Load(cmd.Context())
			}
			if err != nil {
				return err
			}
			return yaml.NewEncoder(cmd.OutOrStdout()).Encode(prefs)
		},
	}
	get.Flags().StringVar(&workspace, "workspace", "", "workspace to resolve instead of the last selected one")
	get.Flags().BoolVar(&explain, "explain", false, "print the layer each value comes from instead of the values")

	set := &cobra.Command{
		Use:   "set ACTION_JSON",
		Short: `Apply a preferences action, e.g. '{"type":"SET_WORKSPACE","payload":{"workspace":"lab"}}'`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			change, err := preferences.DecodeAction([]byte(args[0]))
			if err != nil {
				return err
			}
			resolver, closeKV, err := openResolver(flags)
			if err != nil {
				return err
			}
			defer closeKV()

			engine, err := spectra.NewEngine()
			if err != nil {
				return err
			}
			store, err := spectra.NewStore(cmd.Context(), engine, spectra.WithPreferences(resolver))
			if err != nil {
				return err
			}
			state, err := store.Dispatch(cmd.Context(), spectra.SetPreferences{Change: change})
			if err != nil {
				return err
			}
			return yaml.NewEncoder(cmd.OutOrStdout()).Encode(state.Preferences)
		},
	}

	cmd.AddCommand(get, set)
	return cmd
}

func newLogger(verbose bool) (*zaplog.Logger, error) {
	if !verbose {
		return zaplog.New(nil), nil
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stderr"}
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return zaplog.New(logger), nil
}

func newEngine(flags *globalFlags, logger *zaplog.Logger) (*spectra.Engine, error) {
	opts := append(filters.Options(),
		spectra.WithRuleEngine(flags.ruleEngine),
		spectra.WithEvaluatorLogger(logger),
	)
	return spectra.NewEngine(opts...)
}

func openResolver(flags *globalFlags) (preferences.Resolver, func(), error) {
	resolver := preferences.Resolver{}
	if flags.defaults != "" {
		file, err := preferences.LoadDefaultsFile(flags.defaults)
		if err != nil {
			return resolver, nil, err
		}
		resolver.File = file
		resolver.FileSource = flags.defaults
	}
	if flags.db == "" {
		resolver.KV = preferences.NewMemoryKV()
		return resolver, func() {}, nil
	}
	kv, err := preferences.OpenSQLite(flags.db)
	if err != nil {
		return resolver, nil, err
	}
	resolver.KV = kv
	return resolver, func() { _ = kv.Close() }, nil
}

func writeJSON(w io.Writer, value any, indent bool) error {
	enc := json.NewEncoder(w)
	if indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(value)
}
