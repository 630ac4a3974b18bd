package loader

import (
	"log/slog"
	"net/http"
)

// Default resource names under the base location.
const (
	DefaultGlueName   = "dsrt.js"
	DefaultModuleName = "dsrt.wasm"
)

// Option configures Acquire.
type Option func(*options)

type options struct {
	logger     *slog.Logger
	client     *http.Client
	source     Source
	glueName   string
	moduleName string
}

func defaultOptions() options {
	return options{
		logger:     slog.New(slog.DiscardHandler),
		client:     http.DefaultClient,
		glueName:   DefaultGlueName,
		moduleName: DefaultModuleName,
	}
}

// WithLogger sets the logger used to report acquisition progress.
// A nil logger leaves the default silent logger in place.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithHTTPClient sets the client used for http and https base locations.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		if c != nil {
			o.client = c
		}
	}
}

// WithSource overrides the source derived from the base location.
//
// Example:
//
//	//go:embed assets
//	var assets embed.FS
//
//	d := loader.Acquire(ctx, "", loader.WithSource(loader.FSSource{FS: assets, Dir: "assets"}))
func WithSource(s Source) Option {
	return func(o *options) {
		o.source = s
	}
}

// WithGlueName overrides the name of the companion glue resource.
func WithGlueName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.glueName = name
		}
	}
}

// WithModuleName overrides the name of the WebAssembly module resource.
func WithModuleName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.moduleName = name
		}
	}
}
