package main

import (
	"fmt"
	"io"

	"github.com/dsrt-dev/dsrt"
)

func runVersion(w io.Writer) error {
	_, err := fmt.Fprintf(w, "dsrt %s\n", dsrt.Version)
	return err
}
