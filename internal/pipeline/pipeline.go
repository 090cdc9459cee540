// Package pipeline implements the extract → transform → load run: one HTTP
// GET returning a JSON array, light tabular cleanup, one CSV file on disk.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"apicsv/internal/httpx"
)

// Pipeline describes one run. A value is cheap and single-use: build it, call
// Run, discard it. Concurrent runs must not share a Pipeline.
type Pipeline struct {
	URL        string
	Params     url.Values
	OutputDir  string
	OutputFile string // empty means timestamp-based default
	Sentinel   string // empty means "N/A"

	HTTP   *http.Client
	Logger *slog.Logger
	Now    func() time.Time
}

// New builds a run against apiURL writing into outputDir, with the same
// per-request timeout the client defaults to elsewhere in this module.
func New(apiURL, outputDir string) *Pipeline {
	return &Pipeline{
		URL:       apiURL,
		OutputDir: outputDir,
		HTTP: &http.Client{
			Timeout: 2 * time.Minute,
		},
	}
}

// Run executes the three stages in order and returns the path of the written
// CSV. The first failing stage aborts the run; its error is returned
// unchanged after being logged with context. No file is written on failure.
func (p *Pipeline) Run(ctx context.Context) (string, error) {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("run_id", uuid.NewString())

	log.Info("starting pipeline run", "url", p.URL)

	set, err := Extract(ctx, p.HTTP, p.URL, p.Params)
	if err != nil {
		logExtractFailure(log, p.URL, err)
		return "", err
	}
	log.Info("extract complete", "url", p.URL, "records", set.Len(), "columns", len(set.Columns))

	tr := Transformer{Sentinel: p.Sentinel, Now: p.Now}
	cleaned := tr.Apply(set)
	if removed := set.Len() - cleaned.Len(); removed > 0 {
		log.Info("removed duplicate records", "count", removed)
	}
	log.Info("transform complete", "records", cleaned.Len(), "columns", len(cleaned.Columns))

	ld := Loader{OutDir: p.OutputDir, Filename: p.OutputFile, Now: p.Now}
	path, err := ld.Write(cleaned)
	if err != nil {
		var ioErr *IOError
		if errors.As(err, &ioErr) {
			log.Error("load failed", "op", ioErr.Op, "path", ioErr.Path, "error", ioErr.Err)
		} else {
			log.Error("load failed", "error", err)
		}
		return "", err
	}

	log.Info("pipeline run completed", "path", path, "records", cleaned.Len())
	return path, nil
}

func logExtractFailure(log *slog.Logger, url string, err error) {
	var netErr *httpx.NetworkError
	var connErr *httpx.ConnectivityError
	var fmtErr *FormatError
	switch {
	case errors.As(err, &netErr):
		log.Error("extract failed: bad status", "url", url, "status", netErr.StatusCode)
	case errors.As(err, &connErr):
		log.Error("extract failed: connectivity", "url", url, "error", connErr.Err)
	case errors.As(err, &fmtErr):
		log.Error("extract failed: bad response format", "url", url, "error", err)
	default:
		log.Error("extract failed", "url", url, "error", err)
	}
}
