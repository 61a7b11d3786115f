// Package sources resolves the ordered HDL source list a build hands to the
// synthesis toolchain.
package sources

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/socgen/internal/ir"
)

// CompileOrder is the CPU's file list, relative to its source root.
const CompileOrder = "tools/compile_order"

// Wrapper files that sit on top of the CPU's own compile order.
var wrapperFiles = []string{
	"examples/litex/l1_to_wishbone.sv",
	"examples/litex/litex_wrapper.sv",
}

// Resolve returns the source list: interrupt controller, timer, every
// non-blank compile_order entry under the CPU root, then the bus bridge and
// wrapper. Empty config fields contribute nothing.
func Resolve(cfg ir.SourceConfig) ([]string, error) {
	var out []string
	if cfg.PLIC != "" {
		out = append(out, cfg.PLIC)
	}
	if cfg.CLINT != "" {
		out = append(out, cfg.CLINT)
	}
	if cfg.CVA5Root == "" {
		return out, nil
	}

	entries, err := readCompileOrder(filepath.Join(cfg.CVA5Root, CompileOrder))
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		out = append(out, filepath.Join(cfg.CVA5Root, e))
	}
	for _, w := range wrapperFiles {
		out = append(out, filepath.Join(cfg.CVA5Root, w))
	}
	return out, nil
}

func readCompileOrder(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open compile order: %w", err)
	}
	defer f.Close()

	var entries []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		entries = append(entries, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read compile order %s: %w", path, err)
	}
	return entries, nil
}
