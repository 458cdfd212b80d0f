package terminal

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/de-tools/governance-atlas/pkg/runtime/terminal/commands"
	"github.com/de-tools/governance-atlas/pkg/runtime/terminal/export"
	"github.com/de-tools/governance-atlas/pkg/services/assessment"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// Dependencies are built once the config path is known.
type Dependencies struct {
	Service assessment.Service
	Archive commands.Archive
	// Close releases storage, may be nil
	Close func() error
}

type SetupFunc func(ctx context.Context, configPath string) (Dependencies, error)

// CLI represents the command-line interface
type CLI struct {
	setup      SetupFunc
	env        *commands.Env
	logOutput  io.Writer
	configPath string
	verbose    bool
	closer     func() error
	rootCmd    *cobra.Command
}

// Options contain configuration for the CLI
type Options struct {
	Setup SetupFunc
	// Output receives reports, Logs receives structured logs
	Output io.Writer
	Logs   io.Writer
}

// NewCLI creates a new CLI instance
func NewCLI(opts Options) *CLI {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Logs == nil {
		opts.Logs = os.Stderr
	}

	cli := &CLI{
		setup:     opts.Setup,
		env:       &commands.Env{Reporter: export.NewReporter(opts.Output)},
		logOutput: opts.Logs,
	}

	cli.rootCmd = cli.newRootCmd()
	return cli
}

func (cli *CLI) Execute() error {
	return cli.ExecuteContext(context.Background())
}

func (cli *CLI) ExecuteContext(ctx context.Context) error {
	defer cli.close()
	return cli.rootCmd.ExecuteContext(ctx)
}

// SetArgs overrides os.Args, for tests.
func (cli *CLI) SetArgs(args []string) {
	cli.rootCmd.SetArgs(args)
}

func (cli *CLI) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "atlas",
		Short:             "Cloud governance posture assessment",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: cli.prepare,
	}

	cmd.PersistentFlags().StringVarP(&cli.configPath, "config", "c", "", "Path to the settings file")
	cmd.PersistentFlags().BoolVarP(&cli.verbose, "verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(commands.NewClassifyCmd(cli.env))
	cmd.AddCommand(commands.NewAssessCmd(cli.env))
	cmd.AddCommand(commands.NewSnapshotsCmd(cli.env))
	cmd.AddCommand(commands.NewDiffCmd(cli.env))

	return cmd
}

func (cli *CLI) prepare(cmd *cobra.Command, _ []string) error {
	level := zerolog.WarnLevel
	if cli.verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: cli.logOutput, NoColor: true}).
		Level(level).
		With().
		Timestamp().
		Logger()
	ctx := logger.WithContext(cmd.Context())
	cmd.SetContext(ctx)

	if cli.setup == nil {
		return fmt.Errorf("cli has no setup")
	}
	deps, err := cli.setup(ctx, cli.configPath)
	if err != nil {
		return err
	}
	cli.env.Service = deps.Service
	cli.env.Archive = deps.Archive
	cli.closer = deps.Close

	logger.Debug().Str("config", cli.configPath).Msg("cli configured")
	return nil
}

func (cli *CLI) close() {
	if cli.closer == nil {
		return
	}
	_ = cli.closer()
	cli.closer = nil
}
