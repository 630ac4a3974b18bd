package dsrt_test

import (
	"context"
	"fmt"
	"testing/fstest"

	"github.com/dsrt-dev/dsrt"
	"github.com/dsrt-dev/dsrt/loader"
)

// ExampleRuntime_Init shows that a missing module is not an error: every
// operation still produces the right result in Go.
func ExampleRuntime_Init() {
	ctx := context.Background()

	rt := dsrt.NewRuntime()
	d := rt.Init(ctx, dsrt.WithLoaderOptions(loader.WithSource(loader.FSSource{FS: fstest.MapFS{}})))
	fmt.Println("ready:", d.Ready, "mode:", d.Mode)

	x := rt.Vector3(1, 0, 0)
	y := rt.Vector3(0, 1, 0)
	fmt.Println(x.Cross(ctx, y))
	// Output:
	// ready: false mode: none
	// Vector3(0, 0, 1)
}

func ExampleVector3_Normalize() {
	ctx := context.Background()
	fmt.Println(dsrt.V3(0, 3, 4).Normalize(ctx))
	fmt.Println(dsrt.V3(0, 0, 0).Normalize(ctx))
	// Output:
	// Vector3(0, 0.6, 0.8)
	// Vector3(0, 0, 0)
}

func ExampleMatrix4_Multiply() {
	ctx := context.Background()
	scale := dsrt.M4(
		2, 0, 0, 0,
		0, 2, 0, 0,
		0, 0, 2, 0,
		0, 0, 0, 1,
	)
	fmt.Println(scale.Multiply(ctx, dsrt.M4()))
	// Output: Matrix4[2 0 0 0; 0 2 0 0; 0 0 2 0; 0 0 0 1]
}
