// Command dsrt probes for the dsrt WebAssembly backend and demonstrates the
// vector and matrix API.
//
// Usage:
//
//	dsrt version
//	dsrt probe [-config dsrt.toml] [base ...]
//	dsrt demo [-config dsrt.toml] [-base url] [-frames n] [-iterations n]
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"

	"github.com/dsrt-dev/dsrt"
)

func main() {
	log.SetFlags(0)
	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "version":
		err = runVersion(os.Stdout)
	case "probe":
		err = runProbe(ctx, os.Stdout, args)
	case "demo":
		err = runDemo(ctx, os.Stdout, args)
	case "help", "-h", "-help", "--help":
		usage(os.Stdout)
	default:
		usage(os.Stderr)
		log.Fatalf("unknown command: %s", cmd)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, `usage: dsrt <command> [flags]

commands:
  version   print the library version
  probe     report which backend mode each base location yields
  demo      run vector, matrix and engine examples`)
}

// closeBackend closes the backend held by rt and joins a failure into
// *errp.
func closeBackend(ctx context.Context, rt *dsrt.Runtime, errp *error) {
	if err := rt.Close(context.WithoutCancel(ctx)); err != nil {
		*errp = errors.Join(*errp, fmt.Errorf("close backend: %w", err))
	}
}
