package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/theirongolddev/rollview/internal/cli"
	"github.com/theirongolddev/rollview/internal/daemon"
	"github.com/theirongolddev/rollview/internal/pipeline"

	"github.com/spf13/cobra"
)

// serverRecord is written next to the index while `rollview serve` runs so
// that `serve status` and `serve stop` can find it.
type serverRecord struct {
	PID         int       `json:"pid"`
	Addr        string    `json:"addr"`
	StartedAt   time.Time `json:"started_at"`
	SessionsDir string    `json:"sessions_dir"`
}

var (
	flagServeAddr         string
	flagServeInterval     time.Duration
	flagServeRecord       string
	flagServeEventsBuffer int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve sessions and transcripts over a local HTTP API",
	RunE:  runServe,
}

var serveStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show server process and API status",
	RunE:  runServeStatus,
}

var serveStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running server",
	RunE:  runServeStop,
}

func init() {
	serveCmd.PersistentFlags().StringVar(&flagServeAddr, "addr", "", "HTTP listen address (default serve.addr)")
	serveCmd.PersistentFlags().StringVar(&flagServeRecord, "run-file", filepath.Join(pipeline.CacheDir(), "serve.json"), "Runtime record of the running server")
	serveCmd.Flags().DurationVar(&flagServeInterval, "interval", 30*time.Second, "Re-index interval")
	serveCmd.Flags().IntVar(&flagServeEventsBuffer, "events-buffer", 200, "Max in-memory events retained")

	serveCmd.AddCommand(serveStatusCmd)
	serveCmd.AddCommand(serveStopCmd)
	rootCmd.AddCommand(serveCmd)
}

func serveAddr() string {
	if flagServeAddr != "" {
		return flagServeAddr
	}
	return cfg.Serve.Addr
}

func runServe(_ *cobra.Command, _ []string) error {
	if rec, err := readServerRecord(flagServeRecord); err == nil && processAlive(rec.PID) {
		return fmt.Errorf("server already running (pid %d, http://%s)", rec.PID, rec.Addr)
	}

	addr := serveAddr()
	rec := serverRecord{
		PID:         os.Getpid(),
		Addr:        addr,
		StartedAt:   time.Now(),
		SessionsDir: flagSessionsDir,
	}
	if err := writeServerRecord(flagServeRecord, rec); err != nil {
		return err
	}
	defer func() { _ = os.Remove(flagServeRecord) }()

	svc := daemon.New(daemon.Config{
		SessionsDir:   flagSessionsDir,
		ProjectFilter: flagProject,
		UseIndex:      useIndex(),
		Interval:      flagServeInterval,
		Addr:          addr,
		EventsBuffer:  flagServeEventsBuffer,
		CacheSize:     cfg.Cache.Transcripts,
		Logger:        slog.Default(),
	})

	fmt.Printf("  rollview listening on http://%s\n", addr)
	fmt.Printf("  Indexing every %s from %s\n", flagServeInterval, flagSessionsDir)
	fmt.Printf("  Stop with Ctrl-C or `rollview serve stop`\n")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runServeStatus(c *cobra.Command, _ []string) error {
	addr := serveAddr()
	rec, err := readServerRecord(flagServeRecord)
	switch {
	case err != nil:
		fmt.Printf("  Server: no run file, probing %s\n", addr)
	case !processAlive(rec.PID):
		fmt.Printf("  Server: stale run file (pid %d not alive)\n", rec.PID)
		return nil
	default:
		addr = rec.Addr
		fmt.Printf("  Server PID: %d (up %s)\n", rec.PID, time.Since(rec.StartedAt).Round(time.Second))
	}
	fmt.Printf("  Address: http://%s\n", addr)

	ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
	defer cancel()
	st, err := daemon.NewClient(addr).Status(ctx)
	if err != nil {
		fmt.Printf("  API status: unreachable (%v)\n", err)
		return nil
	}

	fmt.Printf("  Sessions dir: %s\n", st.SessionsDir)
	if st.LastPollAt.IsZero() {
		fmt.Printf("  Last index: pending\n")
	} else {
		fmt.Printf("  Last index: %s (%d passes)\n", cli.FormatAge(st.LastPollAt), st.PollCount)
	}
	fmt.Printf("  Sessions: %s in %d projects (%d trivial)\n",
		cli.FormatNumber(int64(st.Summary.Sessions)), st.Summary.Projects, st.Summary.Trivial)
	fmt.Printf("  Cached transcripts: %d\n", st.CachedTranscript)
	if st.LastError != "" {
		fmt.Printf("  Last error: %s\n", st.LastError)
	}
	return nil
}

func runServeStop(_ *cobra.Command, _ []string) error {
	rec, err := readServerRecord(flagServeRecord)
	if err != nil {
		return errors.New("server is not running")
	}

	proc, err := os.FindProcess(rec.PID)
	if err != nil {
		return fmt.Errorf("find server process: %w", err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("signal server process: %w", err)
	}

	for deadline := time.Now().Add(8 * time.Second); time.Now().Before(deadline); time.Sleep(150 * time.Millisecond) {
		if !processAlive(rec.PID) {
			_ = os.Remove(flagServeRecord)
			fmt.Printf("  Stopped server (pid %d)\n", rec.PID)
			return nil
		}
	}
	return fmt.Errorf("server (pid %d) did not exit in time", rec.PID)
}

func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}

func writeServerRecord(path string, rec serverRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create run file directory: %w", err)
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o600)
}

func readServerRecord(path string) (serverRecord, error) {
	var rec serverRecord
	//nolint:gosec // run file path is configured by the local user
	data, err := os.ReadFile(path)
	if err != nil {
		return rec, err
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("parse run file %s: %w", path, err)
	}
	return rec, nil
}
