// Package filerunner runs one account's batch from a handles file.
package filerunner

import (
	"bufio"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/AliAlAbbassi/air1/models"
	"github.com/AliAlAbbassi/air1/pacer"
	"github.com/AliAlAbbassi/air1/runner"
	"github.com/AliAlAbbassi/air1/tlmt"
)

type fileRunner struct {
	cfg      *runner.Config
	log      *zap.Logger
	input    io.Reader
	outfile  *os.File
	outreach *runner.Outreach
}

func New(cfg *runner.Config) (runner.Runner, error) {
	if cfg.RunMode != runner.RunModeFile {
		return nil, fmt.Errorf("%w: %d", runner.ErrInvalidRunMode, cfg.RunMode)
	}

	ans := &fileRunner{
		cfg: cfg,
		log: runner.NewLogger(cfg.Debug),
	}

	if err := ans.setInput(); err != nil {
		return nil, err
	}

	return ans, nil
}

func (r *fileRunner) Run(ctx context.Context) (err error) {
	var summary models.BatchSummary

	t0 := time.Now().UTC()

	defer func() {
		elapsed := time.Now().UTC().Sub(t0)
		params := map[string]any{
			"attempted": summary.Attempted,
			"succeeded": summary.Succeeded,
			"duration":  elapsed.String(),
		}

		if err != nil {
			params["error"] = err.Error()
		}

		evt := tlmt.NewEvent("file_runner", params)

		_ = runner.Telemetry().Send(ctx, evt)
	}()

	handles, err := readHandles(r.input)
	if err != nil {
		return err
	}

	if len(handles) == 0 {
		return fmt.Errorf("no handles in input")
	}

	r.outreach, err = runner.NewOutreach(ctx, r.cfg, r.log)
	if err != nil {
		return err
	}

	handles, skipped, err := r.outreach.FilterContacted(ctx, r.cfg.AccountID, handles)
	if err != nil {
		return err
	}

	if skipped > 0 {
		r.log.Info("skipping already contacted handles", zap.Int("count", skipped))
	}

	out, closeOut, err := r.openResults()
	if err != nil {
		return err
	}

	defer closeOut()

	write, flush, err := newOutcomeWriter(out, r.cfg.JSON)
	if err != nil {
		return err
	}

	run := r.outreach.Scheduler.RunBatch(ctx, pacer.Batch{
		AccountID:  r.cfg.AccountID,
		Handles:    handles,
		Message:    r.cfg.Message,
		StartAt:    r.cfg.StartAt,
		MaxActions: r.cfg.MaxActions,
	})

	for outcome := range run.Outcomes() {
		r.outreach.Persist(ctx, r.cfg.AccountID, outcome)

		if werr := write(outcome); werr != nil {
			r.log.Error("failed to write outcome", zap.Error(werr))
		}
	}

	flush()

	summary = run.Summary()

	r.log.Info("batch finished",
		zap.String("account_id", r.cfg.AccountID),
		zap.Int("attempted", summary.Attempted),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("duplicates", summary.Duplicates),
		zap.Int("invalid", summary.Invalid),
		zap.Int("rate_limited", summary.RateLimited),
		zap.Int("unknown", summary.Unknown),
		zap.Int("skipped", summary.Skipped),
	)

	return run.Err()
}

func (r *fileRunner) Close(context.Context) error {
	var firstErr error

	if r.outreach != nil {
		firstErr = r.outreach.Close()
	}

	if r.input != nil && r.input != os.Stdin {
		if closer, ok := r.input.(io.Closer); ok {
			if err := closer.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}

	if r.outfile != nil {
		if err := r.outfile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

func (r *fileRunner) setInput() error {
	switch r.cfg.InputFile {
	case "stdin":
		r.input = os.Stdin
	default:
		f, err := os.Open(r.cfg.InputFile)
		if err != nil {
			return err
		}

		r.input = f
	}

	return nil
}

func (r *fileRunner) openResults() (io.Writer, func(), error) {
	if r.cfg.ResultsFile == "stdout" {
		return os.Stdout, func() {}, nil
	}

	f, err := os.Create(r.cfg.ResultsFile)
	if err != nil {
		return nil, nil, err
	}

	r.outfile = f

	return f, func() { _ = f.Close() }, nil
}

// readHandles reads one handle per line, skipping blanks and comments.
func readHandles(in io.Reader) ([]string, error) {
	var handles []string

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		handles = append(handles, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return handles, nil
}

func newOutcomeWriter(out io.Writer, asJSON bool) (func(models.Outcome) error, func(), error) {
	if asJSON {
		enc := json.NewEncoder(out)

		return func(o models.Outcome) error {
			return enc.Encode(o)
		}, func() {}, nil
	}

	w := csv.NewWriter(out)

	header := []string{"handle", "classification", "http_status", "timestamp", "evidence"}
	if err := w.Write(header); err != nil {
		return nil, nil, err
	}

	write := func(o models.Outcome) error {
		return w.Write([]string{
			o.Handle,
			string(o.Classification),
			strconv.Itoa(o.HTTPStatus),
			o.Timestamp.UTC().Format(time.RFC3339),
			o.RawEvidence,
		})
	}

	return write, w.Flush, nil
}
