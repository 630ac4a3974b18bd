package backend

import (
	"context"
	"errors"
	"math"
	"testing"
)

// mockFunction records its parameters and returns a fixed result.
type mockFunction struct {
	params  []uint64
	results []uint64
	err     error
}

func (f *mockFunction) Call(_ context.Context, params ...uint64) ([]uint64, error) {
	f.params = append([]uint64(nil), params...)
	return f.results, f.err
}

type mockTable map[string]Function

func (t mockTable) Function(name string) (Function, bool) {
	fn, ok := t[name]
	return fn, ok
}

// mockMemory hands out increasing pointers and tracks live regions.
type mockMemory struct {
	next       uint32
	live       map[uint32]uint32
	allocErr   error
	releaseErr error
	allocs     int
}

func newMockMemory() *mockMemory {
	return &mockMemory{next: 1024, live: make(map[uint32]uint32)}
}

func (m *mockMemory) Allocate(_ context.Context, size uint32) (uint32, error) {
	if m.allocErr != nil && m.allocs > 0 {
		return 0, m.allocErr
	}
	m.allocs++
	p := m.next
	m.next += size
	m.live[p] = size
	return p, nil
}

func (m *mockMemory) Release(_ context.Context, ptr uint32) error {
	delete(m.live, ptr)
	return m.releaseErr
}

func (m *mockMemory) WriteFloats(uint32, []float64) error           { return nil }
func (m *mockMemory) ReadFloats(_ uint32, n int) ([]float64, error) { return make([]float64, n), nil }

type mockCloser struct{ closed bool }

func (c *mockCloser) Close(context.Context) error {
	c.closed = true
	return nil
}

func TestModeString(t *testing.T) {
	tests := []struct {
		mode Mode
		want string
	}{
		{ModeNone, "none"},
		{ModeRaw, "raw"},
		{ModeRich, "rich"},
		{Mode(9), "Mode(9)"},
	}
	for _, tt := range tests {
		if got := tt.mode.String(); got != tt.want {
			t.Errorf("Mode(%d).String() = %q, want %q", tt.mode, got, tt.want)
		}
	}
}

func TestUnavailable(t *testing.T) {
	d := Unavailable()
	if d.Ready || d.Mode != ModeNone || d.Functions != nil || d.Memory != nil {
		t.Errorf("Unavailable() = %+v", d)
	}
	if _, ok := d.Scalar(FuncAdd); ok {
		t.Error("Scalar() on unavailable descriptor should fail")
	}
	if _, _, ok := d.Pointer(FuncCross3); ok {
		t.Error("Pointer() on unavailable descriptor should fail")
	}
	if err := d.Close(context.Background()); err != nil {
		t.Errorf("Close() = %v, want nil", err)
	}
}

func TestRawDescriptor(t *testing.T) {
	fns := mockTable{FuncAdd: &mockFunction{}, FuncCross3: &mockFunction{}}
	d := Raw(fns, nil)
	if !d.Ready || d.Mode != ModeRaw || d.Memory != nil {
		t.Fatalf("Raw() = %+v", d)
	}
	if _, ok := d.Scalar(FuncAdd); !ok {
		t.Error("Scalar(dsrt_add) should be served in raw mode")
	}
	if _, _, ok := d.Pointer(FuncCross3); ok {
		t.Error("Pointer() must not be served in raw mode")
	}
	if got := Raw(nil, nil); got.Ready {
		t.Error("Raw(nil) should be unavailable")
	}
}

func TestRichDescriptor(t *testing.T) {
	fns := mockTable{FuncCross3: &mockFunction{}}
	mem := newMockMemory()
	closer := &mockCloser{}
	d := Rich(fns, mem, closer)
	if !d.Ready || d.Mode != ModeRich {
		t.Fatalf("Rich() = %+v", d)
	}
	fn, gotMem, ok := d.Pointer(FuncCross3)
	if !ok || fn == nil || gotMem != Memory(mem) {
		t.Error("Pointer(dsrt_cross3) should be served in rich mode")
	}
	if _, _, ok := d.Pointer(FuncMat4Multiply); ok {
		t.Error("Pointer() for a missing export should fail")
	}
	if err := d.Close(context.Background()); err != nil || !closer.closed {
		t.Errorf("Close() = %v, closed = %v", err, closer.closed)
	}

	if got := Rich(fns, nil, nil); got.Mode != ModeRaw {
		t.Errorf("Rich(fns, nil) mode = %v, want raw", got.Mode)
	}
}

func TestCallF64(t *testing.T) {
	fn := &mockFunction{results: []uint64{math.Float64bits(7.5)}}
	got, err := CallF64(context.Background(), fn, 1.5, -2)
	if err != nil {
		t.Fatalf("CallF64() error = %v", err)
	}
	if got != 7.5 {
		t.Errorf("CallF64() = %v, want 7.5", got)
	}
	if len(fn.params) != 2 || math.Float64frombits(fn.params[1]) != -2 {
		t.Errorf("params = %v", fn.params)
	}

	fn.results = nil
	if _, err := CallF64(context.Background(), fn); err == nil {
		t.Error("CallF64() with no results should fail")
	}

	fn.err = errors.New("trap")
	if _, err := CallF64(context.Background(), fn); err == nil {
		t.Error("CallF64() should propagate call errors")
	}
}

func TestCallPointersOrder(t *testing.T) {
	fn := &mockFunction{}
	if err := CallPointers(context.Background(), fn, []float64{1, 2}, 1024, 2048); err != nil {
		t.Fatalf("CallPointers() error = %v", err)
	}
	want := []uint64{math.Float64bits(1), math.Float64bits(2), 1024, 2048}
	if len(fn.params) != len(want) {
		t.Fatalf("params = %v, want %v", fn.params, want)
	}
	for i := range want {
		if fn.params[i] != want[i] {
			t.Errorf("params[%d] = %d, want %d", i, fn.params[i], want[i])
		}
	}
}

func TestWithScratchReleasesOnSuccess(t *testing.T) {
	mem := newMockMemory()
	var got []uint32
	err := WithScratch(context.Background(), mem, []uint32{24, 128}, func(ptrs []uint32) error {
		got = append(got, ptrs...)
		if len(mem.live) != 2 {
			t.Errorf("live regions = %d, want 2", len(mem.live))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithScratch() error = %v", err)
	}
	if len(got) != 2 || got[0] != 1024 || got[1] != 1048 {
		t.Errorf("ptrs = %v, want [1024 1048]", got)
	}
	if len(mem.live) != 0 {
		t.Errorf("live regions after return = %d, want 0", len(mem.live))
	}
}

func TestWithScratchReleasesOnError(t *testing.T) {
	mem := newMockMemory()
	callErr := errors.New("call failed")
	err := WithScratch(context.Background(), mem, []uint32{128, 128, 128}, func([]uint32) error {
		return callErr
	})
	if !errors.Is(err, callErr) {
		t.Errorf("WithScratch() error = %v, want %v", err, callErr)
	}
	if len(mem.live) != 0 {
		t.Errorf("live regions = %d, want 0", len(mem.live))
	}
}

func TestWithScratchReleasesOnPanic(t *testing.T) {
	mem := newMockMemory()
	func() {
		defer func() {
			if recover() == nil {
				t.Error("expected panic to propagate")
			}
		}()
		_ = WithScratch(context.Background(), mem, []uint32{24}, func([]uint32) error {
			panic("boom")
		})
	}()
	if len(mem.live) != 0 {
		t.Errorf("live regions = %d, want 0", len(mem.live))
	}
}

func TestWithScratchPartialAllocation(t *testing.T) {
	mem := newMockMemory()
	mem.allocErr = errors.New("oom")
	called := false
	err := WithScratch(context.Background(), mem, []uint32{128, 128}, func([]uint32) error {
		called = true
		return nil
	})
	if err == nil {
		t.Fatal("expected allocation error")
	}
	if called {
		t.Error("fn must not run when allocation fails")
	}
	if len(mem.live) != 0 {
		t.Errorf("first region leaked: live = %d", len(mem.live))
	}
}

func TestWithScratchJoinsReleaseErrors(t *testing.T) {
	mem := newMockMemory()
	mem.releaseErr = errors.New("free failed")
	err := WithScratch(context.Background(), mem, []uint32{24}, func([]uint32) error { return nil })
	if !errors.Is(err, mem.releaseErr) {
		t.Errorf("WithScratch() error = %v, want release error", err)
	}
}

func TestWithScratchNilMemory(t *testing.T) {
	err := WithScratch(context.Background(), nil, []uint32{24}, func([]uint32) error { return nil })
	if !errors.Is(err, ErrNotAvailable) {
		t.Errorf("WithScratch(nil) error = %v, want ErrNotAvailable", err)
	}
}

func TestFloatBytes(t *testing.T) {
	if got := FloatBytes(3); got != 24 {
		t.Errorf("FloatBytes(3) = %d, want 24", got)
	}
	if got := FloatBytes(16); got != 128 {
		t.Errorf("FloatBytes(16) = %d, want 128", got)
	}
}
