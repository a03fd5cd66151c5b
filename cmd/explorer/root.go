package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/RiddheshMore/ros-component-explorer/config"
)

// rootOptions carries persistent flags and the state PersistentPreRunE builds from them.
type rootOptions struct {
	configPath string
	logLevel   string
	logFormat  string
	backend    string
	dataFile   string

	cfg      *config.Config
	logger   *slog.Logger
	closeLog func() error
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           appName,
		Short:         "Browse ROS software components described as RDF triples",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.initialize(cmd)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if opts.closeLog != nil {
				return opts.closeLog()
			}
			return nil
		},
	}
	root.SetVersionTemplate("{{.Name}} version {{.Version}}\n")

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "path to a JSON or YAML configuration file (env: EXPLORER_CONFIG)")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringVar(&opts.logFormat, "log-format", "", "log format: json, text")
	flags.StringVar(&opts.backend, "backend", "", "store backend: local, remote")
	flags.StringVar(&opts.dataFile, "data", "", "path to the triple file")

	root.AddCommand(
		newServeCmd(opts),
		newListCmd(opts),
		newSearchCmd(opts),
		newDetailsCmd(opts),
		newCountCmd(opts),
		newValidateCmd(opts),
		newVersionCmd(),
	)
	return root
}

// initialize loads configuration, applies flag overrides and sets up logging.
func (o *rootOptions) initialize(cmd *cobra.Command) error {
	cfg, err := o.loadConfig(cmd)
	if err != nil {
		return err
	}
	o.cfg = cfg

	logger, closeLog := setupLogger(cfg.Log, cmd.ErrOrStderr())
	o.logger = logger
	o.closeLog = closeLog
	slog.SetDefault(logger)
	return nil
}

func (o *rootOptions) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := o.configPath
	if path == "" {
		path = getEnv("EXPLORER_CONFIG", "")
	}

	loader := config.NewLoader()
	loader.EnableValidation(false)
	if path != "" {
		loader.AddLayer(path)
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = o.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = o.logFormat
	}
	if flags.Changed("backend") {
		cfg.Store.Backend = o.backend
	}
	if flags.Changed("data") {
		cfg.Store.DataFile = o.dataFile
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
