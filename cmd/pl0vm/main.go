// Command pl0vm loads a plain-text instruction image and executes it on
// the register+stack VM, reading SIO_READ input from stdin and writing
// SIO_WRITE output to stdout.
package main

import (
	"flag"
	"fmt"
	"os"

	"pl0/pkg/image"
	"pl0/pkg/vm"
)

func main() {
	inPath := flag.String("in", "", "input instruction file path")
	flag.Parse()

	if *inPath == "" {
		fmt.Fprintln(os.Stderr, "pl0vm: -in is required")
		flag.Usage()
		os.Exit(2)
	}

	f, err := os.Open(*inPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pl0vm: failed to open %q: %v\n", *inPath, err)
		os.Exit(1)
	}
	img, err := image.Read(f)
	f.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "pl0vm: failed to read %q: %v\n", *inPath, err)
		os.Exit(1)
	}

	if err := vm.Run(img, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "pl0vm: %v\n", err)
		os.Exit(1)
	}
}
