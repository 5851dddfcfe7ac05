package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/claude/pulsereport/internal/config"
	"github.com/claude/pulsereport/internal/pipeline"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	date := flag.String("date", "", "report date YYYY-MM-DD (default: yesterday)")
	cadence := flag.String("cadence", "daily", "report cadence: daily, weekly, or monthly")
	htmlOnly := flag.Bool("html-only", false, "write the HTML and skip PDF rendering")
	buildOnly := flag.Bool("build-only", false, "build and cache the daily summary without rendering")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	log.Info("PulseReport starting", "version", Version)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	target := *date
	if target == "" {
		target = time.Now().In(cfg.Location()).AddDate(0, 0, -1).Format("2006-01-02")
	}
	if _, err := time.Parse("2006-01-02", target); err != nil {
		fmt.Fprintf(os.Stderr, "Usage: pulsereport -config config.yaml [-date YYYY-MM-DD] [-cadence daily|weekly|monthly] [-html-only]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	pipe := pipeline.New(cfg, log)
	ctx := context.Background()

	if *buildOnly {
		summary, err := pipe.BuildDay(target)
		if err != nil {
			log.Error("daily build failed", "date", target, "error", err)
			os.Exit(1)
		}
		log.Info("daily summary cached", "date", target, "dropped", summary.Dropped)
		return
	}

	var result *pipeline.Result
	switch *cadence {
	case "daily":
		result, err = pipe.DailyReport(ctx, target, *htmlOnly)
	case "weekly":
		result, err = pipe.WeeklyReport(ctx, target, *htmlOnly)
	case "monthly":
		result, err = pipe.MonthlyReport(ctx, target, *htmlOnly)
	default:
		log.Error("unknown cadence", "cadence", *cadence)
		os.Exit(1)
	}
	if err != nil {
		log.Error("report generation failed", "cadence", *cadence, "date", target, "error", err)
		os.Exit(1)
	}

	log.Info("report generated", "html", result.HTMLPath, "pdf", result.PDFPath)
}
