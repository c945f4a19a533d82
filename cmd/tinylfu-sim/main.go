// Command tinylfu-sim compares the hit ratio of the TinyLFU cache
// with other policies over a synthetic or recorded access trace.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	metrics "github.com/rcrowley/go-metrics"

	tinylfu "github.com/djdv/go-tinylfu"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	conf, err := config(args)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr,
		&slog.HandlerOptions{Level: conf.LogLevel}))
	slog.SetDefault(logger)
	tinylfu.SetLogger(logger.With("component", "cache"))
	defer tinylfu.SetLogger(nil)
	slog.Debug("config", "value", fmt.Sprintf("%+v", *conf))

	trace, err := buildTrace(conf)
	if err != nil {
		return err
	}
	slog.Info("trace ready", "accesses", len(trace), "workers", conf.Workers)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	var (
		registry = metrics.NewRegistry()
		results  = make([]result, 0, len(conf.Policies))
	)
	for _, name := range conf.Policies {
		res, err := simulate(ctx, name, conf, trace, registry)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		results = append(results, res)
	}
	if conf.LogLevel <= slog.LevelDebug {
		metrics.WriteOnce(registry, os.Stderr)
	}
	return report(out, results)
}

func report(out io.Writer, results []result) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "policy\thit ratio\thits\tmisses\tevictions\telapsed\t")
	for _, res := range results {
		fmt.Fprintf(w, "%s\t%.2f%%\t%d\t%d\t%d\t%s\t\n",
			res.policy, res.hitRatio()*100,
			res.hits, res.misses, res.evictions, res.elapsed.Round(time.Millisecond))
	}
	return w.Flush()
}
