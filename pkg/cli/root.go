// Package cli provides the helpbuild command-line interface
package cli

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sandcastle-helpers/helpbuild/pkg/config"
	"github.com/sandcastle-helpers/helpbuild/pkg/logger"
)

// CLI holds the command tree and its output streams
type CLI struct {
	config   *Config
	rootCmd  *cobra.Command
	viper    *viper.Viper
	logger   logger.Logger
	printer  *logger.Printer
	output   io.Writer
	errorOut io.Writer
}

// NewCLI creates a new CLI instance with the given configuration
func NewCLI(cfg *Config) *CLI {
	return NewCLIWithOutput(cfg, os.Stdout, os.Stderr)
}

// NewCLIWithOutput creates a CLI with custom output writers
func NewCLIWithOutput(cfg *Config, output, errorOut io.Writer) *CLI {
	if cfg == nil {
		cfg = NewConfig()
	}
	c := &CLI{
		config:   cfg,
		viper:    viper.New(),
		logger:   logger.NewNopLogger(),
		output:   output,
		errorOut: errorOut,
		printer:  logger.NewPrinter(output, errorOut),
	}
	c.setupCommands()
	return c
}

// Execute runs the CLI with the given arguments
func (c *CLI) Execute(args []string) error {
	return c.ExecuteContext(context.Background(), args)
}

// ExecuteContext runs the CLI with context support
func (c *CLI) ExecuteContext(ctx context.Context, args []string) error {
	c.rootCmd.SetArgs(args)
	return c.rootCmd.ExecuteContext(ctx)
}

func (c *CLI) setupCommands() {
	c.rootCmd = &cobra.Command{
		Use:   "helpbuild",
		Short: "Build Sandcastle help from reference and conceptual sources",
		Long: `helpbuild runs documentation builds: reflection over assemblies, conceptual
topic preparation, BuildAssembler and the compilation of each output format
(HtmlHelp 1.x, HtmlHelp 2.x, Help Viewer, web help).`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.initializeConfig,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	c.rootCmd.SetOut(c.output)
	c.rootCmd.SetErr(c.errorOut)

	c.setupFlags()

	c.rootCmd.Version = c.config.Version
	c.rootCmd.SetVersionTemplate("helpbuild {{.Version}}\n")

	c.rootCmd.AddCommand(
		c.newBuildCmd(),
		c.newValidateCmd(),
		c.newInitCmd(),
		c.newFormatsCmd(),
		c.newWatchCmd(),
		c.newStatusCmd(),
		c.newVersionCmd(),
	)
}

func (c *CLI) setupFlags() {
	flags := c.rootCmd.PersistentFlags()
	flags.StringVar(&c.config.ConfigFile, "config", "", "settings file (default: helpbuild.yaml or helpbuild.json in the project root)")
	flags.StringVar(&c.config.ProjectRoot, "root", ".", "project root directory")
	flags.StringVarP(&c.config.Verbosity, "verbosity", "v", "", "build verbosity (quiet, minimal, normal, detailed, diagnostic)")
	flags.StringVarP(&c.config.OutputDir, "output", "o", "", "output directory, overriding the settings")

	_ = c.viper.BindPFlag("verbosity", flags.Lookup("verbosity"))
	_ = c.viper.BindPFlag("output", flags.Lookup("output"))
}

// initializeConfig loads the project .env file and binds HELPBUILD_*
// environment variables
func (c *CLI) initializeConfig(cmd *cobra.Command, args []string) error {
	if err := config.LoadDotEnv(c.config.ProjectRoot); err != nil {
		return err
	}
	c.viper.SetEnvPrefix("HELPBUILD")
	c.viper.AutomaticEnv()

	if c.config.ConfigFile == "" {
		c.config.ConfigFile = c.viper.GetString("config")
	}
	c.logger = logger.CreateLoggerWithOutput(logLevel(c.viper.GetString("verbosity")), c.errorOut)
	return nil
}

func (c *CLI) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the helpbuild version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			version := c.config.Version
			if version == "" {
				version = "dev"
			}
			cmd.Printf("helpbuild %s\n", version)
		},
	}
}

// ExecuteWithVersion runs the CLI on the process arguments
func ExecuteWithVersion(version string) error {
	cfg := NewConfig()
	cfg.Version = version
	return NewCLI(cfg).Execute(os.Args[1:])
}
