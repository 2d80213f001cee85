package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gsarma/mailblast/internal/dispatch"
	"github.com/gsarma/mailblast/internal/recipient"
)

func newParseCmd() *cobra.Command {
	var (
		splitComma bool
		dedup      bool
		batchSize  int
	)
	cmd := &cobra.Command{
		Use:   "parse [file]",
		Short: "Print the valid recipients of a list and the batch plan",
		Long: `Parse reads a recipient list from file (or stdin when no file is given),
drops blank and invalid lines, and prints the recipients that would be sent
to along with how they are split into batches.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				raw []byte
				err error
			)
			if len(args) == 1 {
				raw, err = os.ReadFile(args[0])
			} else {
				raw, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return fmt.Errorf("failed to read recipients: %w", err)
			}

			list := recipient.Parse(string(raw), recipient.ParseOptions{SplitComma: splitComma, Dedup: dedup})
			w := cmd.OutOrStdout()
			for _, r := range list {
				fmt.Fprintln(w, r)
			}
			fmt.Fprintf(w, "\n%d valid recipients\n", len(list))
			writeBatches(w, list, batchSize)
			return nil
		},
	}
	cmd.Flags().BoolVar(&splitComma, "split-comma", false, "also split on commas")
	cmd.Flags().BoolVar(&dedup, "dedup", false, "drop repeated addresses")
	cmd.Flags().IntVar(&batchSize, "batch-size", dispatch.DefaultBatchSize, "recipients per batch")
	return cmd
}

func writeBatches(w io.Writer, list []string, batchSize int) {
	batches := dispatch.Partition(len(list), batchSize)
	for i, b := range batches {
		fmt.Fprintf(w, "batch %d: recipients %d-%d (%d)\n", i+1, b[0]+1, b[1], b[1]-b[0])
	}
}

func commasToNewlines(s string) string {
	return strings.ReplaceAll(s, ",", "\n")
}
