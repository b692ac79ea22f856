package terminal

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/gpu-yield/price-feed/pkg/runtime/terminal/commands"
	"github.com/gpu-yield/price-feed/pkg/runtime/terminal/export"
	"github.com/gpu-yield/price-feed/pkg/services/pricing"
	"github.com/gpu-yield/price-feed/pkg/store/status"
)

// CLI represents the command-line interface
type CLI struct {
	pricing *pricing.Service
	status  status.Store
	console *Reporter
	table   *export.Reporter
	rootCmd *cobra.Command
}

// Options contain configuration for the CLI
type Options struct {
	Pricing *pricing.Service
	Status  status.Store
	Output  io.Writer
}

// NewCLI creates a new CLI instance
func NewCLI(opts Options) *CLI {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	cli := &CLI{
		pricing: opts.Pricing,
		status:  opts.Status,
		console: NewReporter(opts.Output),
		table:   export.NewReporter(opts.Output),
	}

	cli.rootCmd = cli.newRootCmd()
	return cli
}

func (cli *CLI) Execute() error {
	return cli.rootCmd.Execute()
}

func (cli *CLI) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pricectl",
		Short: "GPU price feed inspection tool",
	}

	cmd.AddCommand(commands.NewDeltaCmd(cli.pricing, cli.table))
	cmd.AddCommand(commands.NewSourcesCmd(cli.pricing, cli.console))
	cmd.AddCommand(commands.NewStatsCmd(cli.status, cli.console))

	return cmd
}
