package backend

import (
	"context"
	"errors"
	"fmt"
)

// FloatSize is the size in bytes of a float64 in module memory.
const FloatSize = 8

// WithScratch allocates one region per entry in sizes, calls fn with the
// region pointers in the same order, and releases every allocated region
// before returning, whether fn succeeds, fails or panics. Regions are
// released in reverse allocation order.
//
// Release errors are joined with the error returned by fn.
func WithScratch(ctx context.Context, mem Memory, sizes []uint32, fn func(ptrs []uint32) error) (err error) {
	if mem == nil {
		return ErrNotAvailable
	}
	ptrs := make([]uint32, 0, len(sizes))

	defer func() {
		// Release must run even if ctx was cancelled mid-call.
		rctx := context.WithoutCancel(ctx)
		for i := len(ptrs) - 1; i >= 0; i-- {
			if rerr := mem.Release(rctx, ptrs[i]); rerr != nil {
				err = errors.Join(err, fmt.Errorf("backend: release %#x: %w", ptrs[i], rerr))
			}
		}
	}()

	for _, size := range sizes {
		ptr, aerr := mem.Allocate(ctx, size)
		if aerr != nil {
			return fmt.Errorf("backend: allocate %d bytes: %w", size, aerr)
		}
		if ptr == 0 {
			return fmt.Errorf("backend: allocate %d bytes: %w", size, ErrNoMemory)
		}
		ptrs = append(ptrs, ptr)
	}
	return fn(ptrs)
}

// FloatBytes returns the number of bytes needed to hold n float64 values.
func FloatBytes(n int) uint32 {
	return uint32(n) * FloatSize
}
