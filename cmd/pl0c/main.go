// Command pl0c is the compiler front end: it lexes, parses, and generates
// code for a PL/0 source file, writing the resulting instruction image in
// the plain-text "op r l m" format.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"pl0/pkg/codegen"
	"pl0/pkg/image"
	"pl0/pkg/lexer"
	"pl0/pkg/parser"
	"pl0/pkg/utils"
)

func main() {
	inPath := flag.String("in", "", "input PL/0 source file path")
	outPath := flag.String("out", "", "output instruction file path (default: input with .pl0vm extension)")
	flag.Parse()

	if *inPath == "" {
		fmt.Fprintln(os.Stderr, "pl0c: -in is required")
		flag.Usage()
		os.Exit(2)
	}

	fullPath, _, err := utils.GetPathInfo(*inPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pl0c: failed to resolve %q: %v\n", *inPath, err)
		os.Exit(1)
	}

	source, err := os.ReadFile(fullPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pl0c: failed to read %q: %v\n", fullPath, err)
		os.Exit(1)
	}

	out := *outPath
	if out == "" {
		out = defaultOutputPath(*inPath)
	}

	if err := compile(source, out); err != nil {
		fmt.Fprintf(os.Stderr, "pl0c: %v\n", err)
		os.Exit(1)
	}
}

func compile(source []byte, outPath string) error {
	toks, lexErr := lexer.Lex(source)
	if lexErr != nil {
		return fmt.Errorf("lex error: %w", lexErr)
	}

	if err := parser.Parse(toks); err != nil {
		return fmt.Errorf("parse error: %w", err)
	}

	img, err := codegen.Generate(toks)
	if err != nil {
		return fmt.Errorf("codegen error: %w", err)
	}

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("failed to create %q: %w", outPath, err)
	}
	defer f.Close()

	if err := image.Write(f, img); err != nil {
		return fmt.Errorf("failed to write %q: %w", outPath, err)
	}

	fmt.Printf("compiled %d instructions -> %s\n", len(img), outPath)
	return nil
}

func defaultOutputPath(inPath string) string {
	ext := filepath.Ext(inPath)
	if ext == "" {
		return inPath + ".pl0vm"
	}
	return strings.TrimSuffix(inPath, ext) + ".pl0vm"
}
