// Command pl0 compiles and runs a PL/0 source file in one step. Unlike
// pl0c it never touches the disk for the instruction image unless -out is
// given to also save it.
package main

import (
	"flag"
	"fmt"
	"os"

	"pl0/pkg/codegen"
	"pl0/pkg/image"
	"pl0/pkg/lexer"
	"pl0/pkg/parser"
	"pl0/pkg/utils"
	"pl0/pkg/vm"
)

func main() {
	inPath := flag.String("in", "", "input PL/0 source file path")
	outPath := flag.String("out", "", "optional path to also save the compiled instruction image")
	flag.Parse()

	if *inPath == "" {
		fmt.Fprintln(os.Stderr, "pl0: -in is required")
		flag.Usage()
		os.Exit(2)
	}

	fullPath, _, err := utils.GetPathInfo(*inPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pl0: failed to resolve %q: %v\n", *inPath, err)
		os.Exit(1)
	}

	source, err := os.ReadFile(fullPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pl0: failed to read %q: %v\n", fullPath, err)
		os.Exit(1)
	}

	toks, lexErr := lexer.Lex(source)
	if lexErr != nil {
		fmt.Fprintf(os.Stderr, "pl0: lex error: %v\n", lexErr)
		os.Exit(1)
	}

	if err := parser.Parse(toks); err != nil {
		fmt.Fprintf(os.Stderr, "pl0: parse error: %v\n", err)
		os.Exit(1)
	}

	img, err := codegen.Generate(toks)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pl0: codegen error: %v\n", err)
		os.Exit(1)
	}

	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "pl0: failed to create %q: %v\n", *outPath, err)
			os.Exit(1)
		}
		werr := image.Write(f, img)
		f.Close()
		if werr != nil {
			fmt.Fprintf(os.Stderr, "pl0: failed to write %q: %v\n", *outPath, werr)
			os.Exit(1)
		}
	}

	if err := vm.Run(img, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "pl0: %v\n", err)
		os.Exit(1)
	}
}
