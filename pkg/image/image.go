// Package image reads and writes the plain-text instruction file format:
// one instruction per line, four whitespace-separated decimal integers
// "op r l m". There are no mnemonics to resolve, only the four decimal
// fields, so the reader/writer is a plain read-a-line/emit-a-line pair
// with no symbol table or operand-count dispatch.
package image

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"pl0/pkg/vm"
)

// Write dumps image as one "op r l m" line per instruction.
func Write(w io.Writer, img vm.Image) error {
	bw := bufio.NewWriter(w)
	for _, ins := range img {
		if _, err := fmt.Fprintf(bw, "%d %d %d %d\n", int32(ins.Op), ins.R, ins.L, ins.M); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Read parses an instruction image from r, one instruction per line, until
// EOF. Blank lines are skipped so that a trailing newline does not produce
// a spurious instruction.
func Read(r io.Reader) (vm.Image, error) {
	var img vm.Image
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var op, reg, lvl, m int32
		if _, err := fmt.Sscanf(line, "%d %d %d %d", &op, &reg, &lvl, &m); err != nil {
			return nil, fmt.Errorf("image: malformed instruction on line %d: %w", lineNo, err)
		}
		if len(img) >= vm.MaxCodeLength {
			return nil, fmt.Errorf("image: exceeds max code length %d", vm.MaxCodeLength)
		}
		img = append(img, vm.Instruction{Op: vm.Op(op), R: reg, L: lvl, M: m})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return img, nil
}
