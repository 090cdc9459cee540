package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"apicsv/internal/config"
	"apicsv/internal/pipeline"
	"apicsv/internal/sftpclient"
)

// paramFlags collects repeated -param key=value flags into query parameters.
type paramFlags struct {
	values url.Values
}

func (p *paramFlags) String() string { return p.values.Encode() }

func (p *paramFlags) Set(s string) error {
	k, v, ok := strings.Cut(s, "=")
	if !ok || k == "" {
		return fmt.Errorf("expected key=value, got %q", s)
	}
	if p.values == nil {
		p.values = url.Values{}
	}
	p.values.Add(k, v)
	return nil
}

func main() {
	// .env is optional; real env always wins
	_ = godotenv.Load()

	cfg := config.Load()

	var params paramFlags
	var (
		apiURL     = flag.String("api-url", "", "URL of the API to fetch data from (required)")
		outputDir  = flag.String("output-dir", cfg.OutputDir, "directory to save the CSV file")
		outputFile = flag.String("output-file", "", "name of the output CSV file (default: timestamp-based)")
		timeout    = flag.Duration("timeout", cfg.HTTPTimeout, "HTTP request timeout")
		uploadSFTP = flag.Bool("sftp", false, "upload the generated CSV via SFTP")
	)
	flag.Var(&params, "param", "query parameter as key=value (repeatable)")
	flag.Parse()

	if *apiURL == "" {
		fmt.Fprintln(os.Stderr, "missing -api-url")
		flag.Usage()
		os.Exit(2)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	// the HTTP client timeout bounds the fetch; no separate run deadline
	ctx := context.Background()

	p := pipeline.New(*apiURL, *outputDir)
	p.Params = params.values
	p.OutputFile = *outputFile
	p.HTTP.Timeout = *timeout

	outPath, err := p.Run(ctx)
	if err != nil {
		log.Fatalf("pipeline failed: %v", err)
	}

	if *uploadSFTP {
		upCfg := sftpclient.Config{
			Host:                  cfg.SFTPHost,
			Port:                  cfg.SFTPPort,
			User:                  cfg.SFTPUser,
			Pass:                  cfg.SFTPPass,
			RemoteDir:             cfg.SFTPDir,
			InsecureIgnoreHostKey: cfg.SFTPInsecureIgnoreHostKey,
		}

		upCtx, upCancel := context.WithTimeout(ctx, 5*time.Minute)
		defer upCancel()

		if err := sftpclient.Upload(upCtx, upCfg, outPath); err != nil {
			log.Fatalf("sftp upload failed: %v", err)
		}
		log.Printf("uploaded to sftp://%s:%d%s", upCfg.Host, upCfg.Port, upCfg.RemoteDir)
	}

	fmt.Printf("Data successfully saved to: %s\n", outPath)
}
