package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/joseph-ayodele/docparser/constants"
	"github.com/joseph-ayodele/docparser/internal/app"
	"github.com/joseph-ayodele/docparser/internal/common"
	"github.com/joseph-ayodele/docparser/internal/export"
	"github.com/joseph-ayodele/docparser/internal/ingest"
	"github.com/joseph-ayodele/docparser/internal/llm"
	"github.com/joseph-ayodele/docparser/internal/repository"
	"github.com/joseph-ayodele/docparser/internal/session"
)

const appKey = "docparser.app"

var errIngestFailed = errors.New("ingestion failed")

// newApp builds the CLI. client overrides the configured provider when non-nil.
func newApp(stdin io.Reader, stdout io.Writer, client llm.InferenceClient) *cli.App {
	return &cli.App{
		Name:      "docparser",
		Usage:     "classify, summarize and question PDF/DOCX documents",
		Reader:    stdin,
		Writer:    stdout,
		ErrWriter: os.Stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "YAML config file", EnvVars: []string{"DOCPARSER_CONFIG"}},
			&cli.StringFlag{Name: "log-level", Usage: "debug|info|warn|error", EnvVars: []string{"LOG_LEVEL"}, Value: "warn"},
		},
		Before: func(c *cli.Context) error {
			if p := c.String("config"); p != "" {
				if err := os.Setenv("DOCPARSER_CONFIG", p); err != nil {
					return err
				}
			}
			cfg, err := common.LoadConfig()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			logger := app.NewLogger(c.App.ErrWriter, c.String("log-level"), "text")
			a, err := app.New(c.Context, cfg, client, logger)
			if err != nil {
				return err
			}
			c.App.Metadata = map[string]interface{}{appKey: a}
			return nil
		},
		After: func(c *cli.Context) error {
			if a := appFrom(c); a != nil {
				a.Close()
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "run",
				Usage:     "ingest a document, then answer questions read from stdin",
				ArgsUsage: "<file>",
				Action:    runAction,
			},
			{
				Name:      "ask",
				Usage:     "ingest a document and answer one question",
				ArgsUsage: "<file> <question>",
				Action:    askAction,
			},
			{
				Name:  "batch",
				Usage: "ingest every PDF/DOCX under a directory, one session each",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "dir", Usage: "directory to scan", Required: true},
					&cli.BoolFlag{Name: "include-hidden", Usage: "also scan hidden files and directories"},
					&cli.StringFlag{Name: "out", Usage: "write the attempt journal to this XLSX file"},
				},
				Action: batchAction,
			},
			{
				Name:      "watch",
				Usage:     "ingest PDF/DOCX files as they appear under the given directories",
				ArgsUsage: "<dir>...",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "initial-scan", Usage: "ingest files already present"},
					&cli.DurationFlag{Name: "debounce", Value: 500 * time.Millisecond},
				},
				Action: watchAction,
			},
			{
				Name:  "export",
				Usage: "export the attempt journal as XLSX",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out", Value: "jobs.xlsx"},
					&cli.StringFlag{Name: "session"},
					&cli.StringFlag{Name: "status", Usage: "RUNNING|EXTRACTED|READY|FAILED|SUPERSEDED"},
					&cli.StringFlag{Name: "from", Usage: "from date YYYY-MM-DD"},
					&cli.StringFlag{Name: "to", Usage: "to date YYYY-MM-DD"},
				},
				Action: exportAction,
			},
		},
	}
}

func appFrom(c *cli.Context) *app.App {
	a, _ := c.App.Metadata[appKey].(*app.App)
	return a
}

func printOutcome(w io.Writer, out session.Outcome) {
	if out.Failed() {
		fmt.Fprintln(w, out.ErrorMessage)
		return
	}
	fmt.Fprintf(w, "Document type: %s\n\n%s\n", out.DocType, out.Summary)
}

func runAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.ShowSubcommandHelp(c)
	}
	a := appFrom(c)
	w := c.App.Writer
	s := a.Registry.New()

	printOutcome(w, s.Ingest(c.Context, c.Args().First()))

	scanner := bufio.NewScanner(c.App.Reader)
	fmt.Fprint(w, "\n> ")
	for scanner.Scan() {
		q := strings.TrimSpace(scanner.Text())
		switch q {
		case "":
			fmt.Fprint(w, "> ")
			continue
		case "exit", "quit":
			return nil
		}
		fmt.Fprintln(w, s.Ask(c.Context, q))
		fmt.Fprint(w, "> ")
	}
	fmt.Fprintln(w)
	return scanner.Err()
}

func askAction(c *cli.Context) error {
	if c.NArg() < 2 {
		return cli.ShowSubcommandHelp(c)
	}
	a := appFrom(c)
	s := a.Registry.New()
	out := s.Ingest(c.Context, c.Args().First())
	if out.Failed() {
		fmt.Fprintln(c.App.Writer, out.ErrorMessage)
		return errIngestFailed
	}
	question := strings.Join(c.Args().Tail(), " ")
	fmt.Fprintln(c.App.Writer, s.Ask(c.Context, question))
	return nil
}

func batchAction(c *cli.Context) error {
	a := appFrom(c)
	w := c.App.Writer

	paths, scan, err := ingest.ScanDirectory(c.Context, c.String("dir"), !c.Bool("include-hidden"))
	if err != nil {
		return err
	}
	results, stats := ingest.NewBatch(a.Registry, a.Logger).Run(c.Context, paths)
	for _, r := range results {
		if r.Outcome.Failed() {
			fmt.Fprintf(w, "%s\tFAILED\t%s\n", r.Path, r.Outcome.ErrorMessage)
		} else {
			fmt.Fprintf(w, "%s\t%s\n", r.Path, r.Outcome.DocType)
		}
	}
	fmt.Fprintf(w, "\nScanned: %d, matched: %d, succeeded: %d, failed: %d\n",
		scan.Scanned, scan.Matched, stats.Succeeded, stats.Failed)

	if out := c.String("out"); out != "" {
		if err := writeExport(c, a, out, repository.JobFilter{}, export.Window{}); err != nil {
			return err
		}
	}
	return nil
}

func watchAction(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.ShowSubcommandHelp(c)
	}
	a := appFrom(c)
	w := c.App.Writer

	events, errs, err := ingest.Watch(c.Context, ingest.WatchConfig{
		Roots:       c.Args().Slice(),
		InitialScan: c.Bool("initial-scan"),
		SkipHidden:  true,
		Debounce:    c.Duration("debounce"),
		Logger:      a.Logger,
	})
	if err != nil {
		return err
	}
	batch := ingest.NewBatch(a.Registry, a.Logger)
	fmt.Fprintf(w, "Watching %s (Ctrl-C to stop)\n", strings.Join(c.Args().Slice(), ", "))
	consumeWatch(c.Context, events, errs, a.Logger, func(p string) {
		r := batch.IngestPath(c.Context, p)
		fmt.Fprintf(w, "\n== %s (session %s)\n", filepath.Base(p), r.SessionID)
		printOutcome(w, r.Outcome)
	})
	return nil
}

// consumeWatch hands each event to handle until events closes or ctx ends.
// A closed errs channel is dropped from the select.
func consumeWatch(ctx context.Context, events <-chan string, errs <-chan error, logger *slog.Logger, handle func(string)) {
	for {
		select {
		case p, ok := <-events:
			if !ok {
				return
			}
			handle(p)
		case err, ok := <-errs:
			if !ok {
				logger.Debug("watch.errors_closed")
				errs = nil
				continue
			}
			logger.Warn("watch.error", "error", err)
		case <-ctx.Done():
			return
		}
	}
}

func exportAction(c *cli.Context) error {
	a := appFrom(c)
	filter := repository.JobFilter{SessionID: c.String("session")}
	if st := c.String("status"); st != "" {
		parsed, ok := constants.ParseJobStatus(st)
		if !ok {
			return fmt.Errorf("unknown status %q", st)
		}
		filter.Status = parsed
	}
	window, err := export.ParseWindow(c.String("from"), c.String("to"))
	if err != nil {
		return err
	}
	return writeExport(c, a, c.String("out"), filter, window)
}

func writeExport(c *cli.Context, a *app.App, out string, filter repository.JobFilter, window export.Window) error {
	data, err := export.NewService(a.Jobs, a.Logger).ExportJobsXLSX(c.Context, filter, window)
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	fmt.Fprintf(c.App.Writer, "Journal written to %s\n", out)
	return nil
}
