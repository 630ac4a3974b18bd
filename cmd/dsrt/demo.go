package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/dsrt-dev/dsrt"
	"github.com/dsrt-dev/dsrt/config"
	"github.com/dsrt-dev/dsrt/engine"
)

func runDemo(ctx context.Context, w io.Writer, args []string) (err error) {
	fs := flag.NewFlagSet("demo", flag.ContinueOnError)
	var (
		configPath = fs.String("config", "", "path to a dsrt.toml file")
		base       = fs.String("base", "", "base location override")
		frames     = fs.Int("frames", 5, "engine frames to run")
		iterations = fs.Int("iterations", 100000, "cross products to time")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *base != "" {
		cfg.BaseLocation = *base
	}
	dsrt.SetLogger(cfg.NewLogger(os.Stderr))

	d := dsrt.Init(ctx, cfg.InitOptions()...)
	defer closeBackend(ctx, dsrt.Default(), &err)

	p := message.NewPrinter(language.English)
	p.Fprintf(w, "backend: ready=%t mode=%s\n", d.Ready, d.Mode)

	showVectors(ctx, w)
	showMatrices(ctx, w)
	benchmarkCross(ctx, p, w, *iterations)
	return spin(ctx, cfg, w, *frames)
}

func showVectors(ctx context.Context, w io.Writer) {
	a := dsrt.V3(1, 2, 3)
	b := dsrt.V3(4, 5, 6)
	fmt.Fprintf(w, "a = %v, b = %v\n", a, b)
	fmt.Fprintf(w, "|a|       = %.6f\n", a.Length(ctx))
	fmt.Fprintf(w, "a · b     = %g\n", a.Dot(ctx, b))
	fmt.Fprintf(w, "a × b     = %v\n", a.Cross(ctx, b))
	fmt.Fprintf(w, "norm(a)   = %v\n", a.Normalize(ctx))
	fmt.Fprintf(w, "norm(0)   = %v\n", dsrt.V3(0, 0, 0).Normalize(ctx))
}

func showMatrices(ctx context.Context, w io.Writer) {
	m := dsrt.M4(
		1, 0, 0, 5,
		0, 1, 0, -2,
		0, 0, 1, 0,
		0, 0, 0, 1,
	)
	fmt.Fprintf(w, "T         = %v\n", m)
	fmt.Fprintf(w, "T × T     = %v\n", m.Multiply(ctx, m))
	fmt.Fprintf(w, "M4(1,2,3) = %v\n", dsrt.M4(1, 2, 3))
}

func benchmarkCross(ctx context.Context, p *message.Printer, w io.Writer, n int) {
	if n <= 0 {
		return
	}
	a, b := dsrt.V3(1, 2, 3), dsrt.V3(4, 5, 6)
	start := time.Now()
	for i := 0; i < n; i++ {
		a = a.Cross(ctx, b).Normalize(ctx)
	}
	elapsed := time.Since(start)
	p.Fprintf(w, "%d cross+normalize in %v (%.0f ops/s)\n", n, elapsed.Round(time.Microsecond), float64(n)/elapsed.Seconds())
}

// spin rotates a vector about Z at a quarter turn per second, one step per
// engine frame.
func spin(ctx context.Context, cfg config.Config, w io.Writer, frames int) error {
	if frames <= 0 {
		return nil
	}
	e := engine.New(cfg.EngineOptions()...)
	v := dsrt.V3(1, 0, 0)
	done := make(chan struct{})
	n := 0
	e.OnUpdate(func(dt float64) {
		theta := math.Pi / 2 * dt
		c, s := math.Cos(theta), math.Sin(theta)
		rot := dsrt.M4(
			c, -s, 0, 0,
			s, c, 0, 0,
			0, 0, 1, 0,
			0, 0, 0, 1,
		)
		v = rot.TransformPoint(v)
		n++
		fmt.Fprintf(w, "frame %d dt=%.4fs v=%v\n", n, dt, v)
		if n == frames {
			e.Stop()
			close(done)
		}
	})
	e.Start()
	defer e.Stop()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
