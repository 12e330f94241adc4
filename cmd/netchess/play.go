package main

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/park285/netchess/internal/console"
	"github.com/park285/netchess/internal/metrics"
	"github.com/park285/netchess/internal/msgcat"
	"github.com/park285/netchess/internal/netplay"
)

type background func(ctx context.Context) error

// play runs the console loop plus any background jobs until the user quits,
// a job fails, or ctx is cancelled.
func play(ctx context.Context, s netplay.GameSession, opts console.Options, intro func(*console.Console), jobs ...background) error {
	cat, err := msgcat.New(appConfig.MessagesDir)
	if err != nil {
		return err
	}
	if opts.Tick <= 0 {
		opts.Tick = appConfig.Tick
	}
	if appConfig.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		opts.Metrics = metrics.New(reg)
		addr := appConfig.MetricsAddr
		jobs = append(jobs, func(ctx context.Context) error { return metrics.Serve(ctx, addr, reg) })
	}
	con := console.New(s, cat, os.Stdout, opts)
	if intro != nil {
		intro(con)
	}

	lines := make(chan string)
	go readLines(os.Stdin, lines)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return con.Run(gctx, lines) })
	for _, job := range jobs {
		job := job
		g.Go(func() error { return job(gctx) })
	}
	err = g.Wait()
	if errors.Is(err, console.ErrQuit) {
		return nil
	}
	return err
}

// readLines never returns before stdin closes; the process exits around it.
func readLines(r io.Reader, out chan<- string) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		out <- sc.Text()
	}
	close(out)
}
