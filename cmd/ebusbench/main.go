// Command ebusbench exercises an event bus with a configurable workload and reports how long each phase took.
//
// Flag defaults may be overridden with EBUSBENCH_* environment variables, like EBUSBENCH_EVENTS=1000,
// and a YAML scenario file may be given with --scenario.
// Explicit flags always win over the scenario file.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/saylorsolutions/busx/ebus"
	"github.com/saylorsolutions/busx/ebus/ebusprom"
	"github.com/saylorsolutions/busx/httpx"
	"github.com/saylorsolutions/busx/signalx"
	"github.com/saylorsolutions/busx/slogx"
	flag "github.com/spf13/pflag"
	"golang.org/x/term"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		_, _ = fmt.Fprintf(os.Stderr, "ebusbench: %v\n", err)
		os.Exit(1)
	}
}

type report struct {
	Phases   []phaseResult `json:"phases"`
	Stats    ebus.Stats    `json:"stats"`
	Warnings int           `json:"warnings"`
}

func run(args []string, stdout, stderr io.Writer) error {
	conf, err := parseConfig(args, stderr)
	if err != nil {
		return err
	}
	log, problems := newLogger(conf, stderr)

	ctx, stop := signalx.ExitContext(context.Background(), log, os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := newBench(conf, log)
	if err != nil {
		return err
	}
	defer b.close()

	served := make(chan error, 1)
	serveCtx, stopServing := context.WithCancel(ctx)
	if len(conf.MetricsAddr) > 0 {
		go func() {
			served <- serveMetrics(serveCtx, conf.MetricsAddr, b.bus, log)
		}()
	} else {
		close(served)
	}

	results, runErr := b.run(ctx)
	stopServing()
	if err := <-served; err != nil {
		log.Error("Metrics server failed", "error", err)
	}
	if runErr != nil {
		return runErr
	}
	return writeReport(stdout, conf.JSON, report{
		Phases:   results,
		Stats:    b.bus.Stats(),
		Warnings: problems.Count(slog.LevelWarn) + problems.Count(slog.LevelError),
	})
}

// newLogger logs as text when w is a terminal, and JSON otherwise or when requested.
// Warnings and errors are also absorbed so they can be counted in the report.
func newLogger(conf config, w io.Writer) (*slog.Logger, *slogx.Absorber) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(conf.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	var (
		opts    = &slog.HandlerOptions{Level: level}
		console slog.Handler
	)
	if !conf.JSON && isTerminal(w) {
		console = slog.NewTextHandler(w, opts)
	} else {
		console = slog.NewJSONHandler(w, opts)
	}
	problems := slogx.NewAbsorber(slog.LevelWarn)
	return slog.New(slogx.MergeHandlers(console, problems)), problems
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func serveMetrics(ctx context.Context, addr string, bus *TransformBus, log *slog.Logger) error {
	reg := prometheus.NewRegistry()
	if err := reg.Register(ebusprom.NewCollector(bus)); err != nil {
		return err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           httpx.Wrap(mux, httpx.Logging(log, slog.LevelDebug), httpx.Recovery(log)),
		ReadHeaderTimeout: 5 * time.Second,
	}
	log.Info("Serving metrics", "addr", addr)
	return httpx.ListenAndServeCtx(ctx, srv)
}

func writeReport(w io.Writer, asJSON bool, r report) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "PHASE\tEVENTS\tHANDLER CALLS\tELAPSED\tPER EVENT\t")
	for _, p := range r.Phases {
		if len(p.Skipped) > 0 {
			_, _ = fmt.Fprintf(tw, "%s\t-\t-\t-\tskipped: %s\t\n", p.Phase, p.Skipped)
			continue
		}
		_, _ = fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\t\n", p.Phase, p.Events, p.HandlerCalls, p.Elapsed, p.PerEvent)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\nconnects=%d disconnects=%d queued=%d executed=%d warnings=%d\n",
		r.Stats.Connects, r.Stats.Disconnects, r.Stats.Queued, r.Stats.QueueExecuted, r.Warnings)
	return err
}
