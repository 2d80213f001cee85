package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "mailblast",
		Short: "Send one message to a list of recipients",
		Long: `mailblast sends one message to every recipient in a list, in batches,
retrying each failed send, and prints a report of who received it.

Settings come from the environment (or a .env file); flags override the
message defaults.

Example:
  mailblast send --to-file recipients.txt --subject "Maintenance tonight"
  mailblast send --dry-run
  mailblast parse recipients.txt`,
		SilenceUsage: true,
	}
	root.AddCommand(newSendCmd())
	root.AddCommand(newParseCmd())
	return root
}
