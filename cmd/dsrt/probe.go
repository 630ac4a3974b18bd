package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"golang.org/x/sync/errgroup"

	"github.com/dsrt-dev/dsrt"
	"github.com/dsrt-dev/dsrt/backend"
	"github.com/dsrt-dev/dsrt/config"
)

// maxConcurrentProbes bounds the number of base locations probed at once.
const maxConcurrentProbes = 4

type probeResult struct {
	base    string
	desc    backend.Descriptor
	exports []string
}

// exporter is implemented by function tables that can list their exports.
type exporter interface {
	Exports() []string
}

func runProbe(ctx context.Context, w io.Writer, args []string) error {
	fs := flag.NewFlagSet("probe", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to a dsrt.toml file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	dsrt.SetLogger(cfg.NewLogger(os.Stderr))

	bases := fs.Args()
	if len(bases) == 0 {
		bases = []string{cfg.BaseLocation}
	}

	results := probeAll(ctx, cfg, bases)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "BASE\tREADY\tMODE\tEXPORTS")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%t\t%s\t%s\n", r.base, r.desc.Ready, r.desc.Mode, strings.Join(r.exports, ","))
	}
	return tw.Flush()
}

// probeAll acquires a backend for every base on its own Runtime. Results
// keep the order of bases.
func probeAll(ctx context.Context, cfg config.Config, bases []string) []probeResult {
	results := make([]probeResult, len(bases))
	var g errgroup.Group
	g.SetLimit(maxConcurrentProbes)
	for i, base := range bases {
		g.Go(func() error {
			rt := dsrt.NewRuntime()
			defer func() {
				if err := rt.Close(context.WithoutCancel(ctx)); err != nil {
					dsrt.Logger().Warn("probe: closing backend failed", "base", base, "err", err)
				}
			}()

			opts := append(cfg.InitOptions(), dsrt.WithBaseLocation(base))
			d := rt.Init(ctx, opts...)
			r := probeResult{base: base, desc: d}
			if e, ok := d.Functions.(exporter); ok {
				r.exports = e.Exports()
			}
			results[i] = r
			return nil
		})
	}
	_ = g.Wait() // probes never fail
	return results
}
