package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/mrz1836/deepplan/internal/hook"
)

// AddHookCommand adds the hook command group to the parent command.
// Hook subcommands never exit non-zero: a broken hook must not block the
// host session, so failures are logged to the file log and swallowed.
func AddHookCommand(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "hook",
		Short: "Host agent lifecycle hooks",
		Long: `Hook subcommands are invoked by the host agent on lifecycle events.
They read the hook payload from stdin, own stdout for their JSON response,
and log only to the file log.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "capture-session",
		Short: "SessionStart hook: capture the session ID",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := InitHookLogger(false)
			defer CloseLogFile()
			return hook.CaptureSession(cmd.InOrStdin(), cmd.OutOrStdout(), os.Getenv, logger)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "write-section",
		Short: "SubagentStop hook: salvage a subagent's section output",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := InitHookLogger(false)
			defer CloseLogFile()
			return hook.WriteSection(cmd.InOrStdin(), logger)
		},
	})

	parent.AddCommand(cmd)
}
