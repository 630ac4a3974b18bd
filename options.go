package dsrt

import (
	"context"

	"github.com/dsrt-dev/dsrt/backend"
	"github.com/dsrt-dev/dsrt/loader"
)

// DefaultBaseLocation is where Init looks for dsrt.wasm and dsrt.js when no
// base location is given.
const DefaultBaseLocation = "/cdn/v1/"

// AcquireFunc acquires a backend from a base location. loader.Acquire is
// the default.
type AcquireFunc func(ctx context.Context, base string, opts ...loader.Option) backend.Descriptor

// InitOption configures Init.
//
// Example:
//
//	dsrt.Init(ctx,
//	    dsrt.WithBaseLocation("https://cdn.example.com/dsrt/v1/"),
//	    dsrt.WithLoaderOptions(loader.WithHTTPClient(client)),
//	)
type InitOption func(*initOptions)

type initOptions struct {
	baseLocation  string
	loaderOptions []loader.Option
	acquire       AcquireFunc
}

func defaultInitOptions() initOptions {
	return initOptions{
		baseLocation: DefaultBaseLocation,
		acquire:      loader.Acquire,
	}
}

// WithBaseLocation sets the URL or directory holding the backend resources.
// An empty location keeps DefaultBaseLocation.
func WithBaseLocation(base string) InitOption {
	return func(o *initOptions) {
		if base != "" {
			o.baseLocation = base
		}
	}
}

// WithLoaderOptions passes options through to the loader.
func WithLoaderOptions(opts ...loader.Option) InitOption {
	return func(o *initOptions) {
		o.loaderOptions = append(o.loaderOptions, opts...)
	}
}

// WithAcquirer replaces the loader. Use it to inject a prepared or mock
// backend.
func WithAcquirer(fn AcquireFunc) InitOption {
	return func(o *initOptions) {
		if fn != nil {
			o.acquire = fn
		}
	}
}
