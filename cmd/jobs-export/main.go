package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	v1 "github.com/joseph-ayodele/docparser/api/docparser/v1"
	"github.com/joseph-ayodele/docparser/constants"
	"github.com/joseph-ayodele/docparser/internal/app"
	"github.com/joseph-ayodele/docparser/internal/common"
	"github.com/joseph-ayodele/docparser/internal/export"
	"github.com/joseph-ayodele/docparser/internal/repository"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		out       = flag.String("out", "jobs.xlsx", "output XLSX file path")
		addr      = flag.String("addr", "", "fetch from a running docparserd at this address instead of opening the journal")
		sessionID = flag.String("session", "", "only attempts of this session")
		statusStr = flag.String("status", "", "only attempts with this status")
		fromStr   = flag.String("from", "", "from date YYYY-MM-DD")
		toStr     = flag.String("to", "", "to date YYYY-MM-DD")
	)
	flag.Parse()
	_ = godotenv.Load()

	window, err := export.ParseWindow(*fromStr, *toStr)
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
	var status constants.JobStatus
	if *statusStr != "" {
		st, ok := constants.ParseJobStatus(*statusStr)
		if !ok {
			printError("Error: unknown --status %q\n", *statusStr)
			os.Exit(1)
		}
		status = st
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: app.ParseLevel(os.Getenv("LOG_LEVEL"))}))
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	var data []byte
	if *addr != "" {
		data, err = fetchRemote(ctx, *addr, &v1.ExportJobsRequest{
			SessionId: *sessionID,
			Status:    string(status),
			FromDate:  *fromStr,
			ToDate:    *toStr,
		})
	} else {
		data, err = exportLocal(ctx, logger, repository.JobFilter{SessionID: *sessionID, Status: status}, window)
	}
	if err != nil {
		logger.Error("export failed", "error", err)
		os.Exit(1)
	}

	if err := os.WriteFile(*out, data, 0o644); err != nil {
		logger.Error("failed to write output file", "error", err)
		os.Exit(1)
	}
	fmt.Printf("Journal exported to %s\n", *out)
}

func exportLocal(ctx context.Context, logger *slog.Logger, filter repository.JobFilter, window export.Window) ([]byte, error) {
	cfg, err := common.LoadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Journal.Driver == "memory" {
		logger.Warn("memory journal is empty in a fresh process; set JOURNAL_DRIVER or use -addr")
	}
	jobs, err := repository.NewJobRepository(ctx, cfg.Journal, logger)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := jobs.Close(); err != nil {
			logger.Error("journal.close_failed", "error", err)
		}
	}()
	return export.NewService(jobs, logger).ExportJobsXLSX(ctx, filter, window)
}

func fetchRemote(ctx context.Context, addr string, req *v1.ExportJobsRequest) ([]byte, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	resp, err := v1.NewDocumentServiceClient(conn).ExportJobs(ctx, req)
	if err != nil {
		return nil, err
	}
	return resp.Xlsx, nil
}
