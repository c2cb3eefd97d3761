package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/domino14/mnk/analyzer"
	"github.com/domino14/mnk/config"
	"github.com/domino14/mnk/scorecache"
	"github.com/domino14/mnk/store"
)

const (
	histogramBins  = 10
	histogramWidth = 50
)

func main() {
	cfg := &config.Config{}
	if err := cfg.Load(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()
	if cfg.GetBool(config.ConfigDebug) {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if len(cfg.Args()) == 0 {
		fmt.Fprintln(os.Stderr, "usage: analyze [flags] <batch.yaml>...")
		fmt.Fprintln(os.Stderr, "\nexample batch file:")
		os.Stderr.Write(analyzer.SampleYAML)
		os.Exit(2)
	}

	var positions []analyzer.Position
	for _, path := range cfg.Args() {
		ps, err := analyzer.LoadBatchFile(path)
		if err != nil {
			log.Fatal().Err(err).Str("path", path).Msg("could-not-load-batch")
		}
		positions = append(positions, ps...)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := analyzer.Options{
		Threads:            cfg.GetInt(config.ConfigThreads),
		TranspositionTable: cfg.GetBool(config.ConfigTranspositionTable),
		TTableMemFraction:  cfg.GetFloat64(config.ConfigTTableMemFraction),
	}
	if url := cfg.GetString(config.ConfigRedisURL); url != "" {
		ccfg := scorecache.DefaultConfig()
		ccfg.URL = url
		cache, err := scorecache.New(ccfg)
		if err != nil {
			log.Fatal().Err(err).Str("url", url).Msg("could-not-connect-to-score-cache")
		}
		defer cache.Close()
		opts.Cache = cache
	}

	results, err := analyzer.Run(ctx, positions, opts)
	if err != nil {
		log.Fatal().Err(err).Msg("analysis-failed")
	}

	p := message.NewPrinter(language.English)
	fmt.Print(resultTable(p, results))
	fmt.Println()
	fmt.Print(summaryText(p, analyzer.Summarize(results)))

	if counts := analyzer.NodeCounts(results); len(counts) > 1 {
		fmt.Println("\nNodes searched per position")
		h := histogram.Hist(histogramBins, counts)
		if err := histogram.Fprint(os.Stdout, h, histogram.Linear(histogramWidth)); err != nil {
			log.Err(err).Msg("could-not-print-histogram")
		}
	}

	if dbPath := cfg.GetString(config.ConfigDBPath); dbPath != "" {
		if err := archive(context.Background(), dbPath, results); err != nil {
			log.Fatal().Err(err).Str("path", dbPath).Msg("could-not-archive")
		}
	}
}

func resultTable(p *message.Printer, results []analyzer.Result) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%-20s %-8s %6s %6s  %-24s %14s %10s\n",
		"name", "shape", "moves", "value", "best", "nodes", "ms")
	for _, r := range results {
		shape := r.State.Shape()
		best := make([]string, len(r.Best))
		for i, c := range r.Best {
			best[i] = shape.MoveString(c)
		}
		nodes := p.Sprintf("%d", r.Nodes)
		if r.Cached {
			nodes = "(cached)"
		}
		fmt.Fprintf(&sb, "%-20s %-8s %6d %6d  %-24s %14s %10.2f\n",
			r.Name, fmt.Sprintf("%dx%d/%d", shape.Width, shape.Height, shape.K),
			r.State.MoveCount(), r.Value, strings.Join(best, " "), nodes,
			float64(r.Duration.Microseconds())/1000)
	}
	return sb.String()
}

func summaryText(p *message.Printer, sm analyzer.Summary) string {
	var sb strings.Builder
	p.Fprintf(&sb, "Positions: %d (%d searched)\n", sm.Positions, sm.Searched)
	p.Fprintf(&sb, "Wins: %d  Draws: %d  Losses: %d\n", sm.Wins, sm.Draws, sm.Losses)
	p.Fprintf(&sb, "Nodes: mean %.0f, stddev %.0f\n", sm.MeanNodes, sm.StdDevNodes)
	p.Fprintf(&sb, "Time:  mean %.2fms, stddev %.2fms\n", sm.MeanSeconds*1000, sm.StdDevSeconds*1000)
	return sb.String()
}

func archive(ctx context.Context, path string, results []analyzer.Result) error {
	st, err := store.Open(ctx, path)
	if err != nil {
		return err
	}
	defer st.Close()
	n := 0
	for _, r := range results {
		if r.Cached {
			continue
		}
		if _, err := st.Save(ctx, store.Record{
			State: r.State, Scores: r.Scores, Nodes: r.Nodes, Duration: r.Duration,
		}); err != nil {
			return err
		}
		n++
	}
	log.Info().Int("records", n).Str("path", path).Msg("archived-results")
	return nil
}
