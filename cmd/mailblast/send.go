package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gsarma/mailblast/internal/app"
	"github.com/gsarma/mailblast/internal/config"
	"github.com/gsarma/mailblast/internal/dispatch"
	"github.com/gsarma/mailblast/internal/logger"
	"github.com/gsarma/mailblast/internal/pipeline"
)

// errRunPartial marks a run that was interrupted after sending started.
var errRunPartial = errors.New("run interrupted")

type sendOptions struct {
	from    string
	to      string
	toFile  string
	subject string
	body    string
	html    bool
	dryRun  bool
	verbose bool
}

func newSendCmd() *cobra.Command {
	var opts sendOptions
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send the message and print the report",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := opts.input()
			if err != nil {
				return err
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log, err := logger.New(cfg.GinMode)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			gin.SetMode(gin.ReleaseMode)

			a, err := app.New(cmd.Context(), cfg, log, app.Deps{})
			if err != nil {
				return err
			}
			defer a.Close()

			if opts.dryRun {
				return printPlan(cmd.OutOrStdout(), a.Runner, in, cfg.BatchSize)
			}

			var observers []dispatch.Observer
			if opts.verbose {
				observers = append(observers, progressPrinter(cmd.ErrOrStderr()))
			}
			report, err := a.Runner.Run(cmd.Context(), in, observers...)
			if err != nil && (pipeline.IsRejected(err) || report.Total == 0) {
				fmt.Fprintln(cmd.ErrOrStderr(), dispatch.FormatError(err))
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), dispatch.FormatReport(report))
			if err != nil {
				log.Warn("run interrupted", zap.Error(err))
				return fmt.Errorf("%w: %v", errRunPartial, err)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.from, "from", "", "sender address (default FROM_EMAIL)")
	f.StringVar(&opts.to, "to", "", "recipients separated by commas or newlines (default TO_EMAILS)")
	f.StringVar(&opts.toFile, "to-file", "", "file with one recipient per line")
	f.StringVar(&opts.subject, "subject", "", "subject (default SUBJECT)")
	f.StringVar(&opts.body, "body", "", "body (default BODY)")
	f.BoolVar(&opts.html, "html", false, "send the body as HTML")
	f.BoolVar(&opts.dryRun, "dry-run", false, "validate and print the batch plan without sending")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "print one line per recipient while sending")
	return cmd
}

func (o sendOptions) input() (pipeline.Input, error) {
	in := pipeline.Input{
		From:    o.from,
		To:      o.to,
		Subject: o.subject,
		Body:    o.body,
		HTML:    o.html,
	}
	if o.toFile != "" {
		raw, err := os.ReadFile(o.toFile)
		if err != nil {
			return in, fmt.Errorf("failed to read recipients: %w", err)
		}
		in.To = string(raw)
	}
	// Flag lists are usually comma separated.
	if o.to != "" && o.toFile == "" {
		in.To = commasToNewlines(o.to)
	}
	return in, nil
}

func printPlan(w io.Writer, r *pipeline.Runner, in pipeline.Input, batchSize int) error {
	req, err := r.Build(in)
	if err != nil {
		fmt.Fprintln(w, dispatch.FormatError(err))
		return err
	}
	fmt.Fprintf(w, "From: %s\nSubject: %s\nRecipients: %d\n", req.From, req.Subject, len(req.Recipients))
	writeBatches(w, req.Recipients, batchSize)
	return nil
}

func progressPrinter(w io.Writer) dispatch.Observer {
	return dispatch.ObserverFunc(func(e dispatch.Event) {
		if e.Kind != dispatch.EventOutcome {
			return
		}
		o := e.Outcome
		if o.Succeeded {
			fmt.Fprintf(w, "[%d/%d] ✅ %s (attempts %d)\n", o.Index+1, e.Total, o.Recipient, o.Attempts)
			return
		}
		fmt.Fprintf(w, "[%d/%d] ❌ %s (attempts %d): %s\n", o.Index+1, e.Total, o.Recipient, o.Attempts, o.ErrorDetail)
	})
}
