// Diagnostic tool for analyzing container files
package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/14thibea/h5features/container"
	"github.com/14thibea/h5features/internal/filter"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run cmd/diagnose/main.go <file.h5f>")
		os.Exit(1)
	}

	filename := os.Args[1]
	fmt.Printf("=== Analyzing %s ===\n\n", filename)

	if err := container.Probe(filename); err != nil {
		fmt.Printf("ERROR: %v\n", err)
		os.Exit(1)
	}

	f, err := container.Open(filename)
	if err != nil {
		fmt.Printf("ERROR: Failed to open file: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	fmt.Printf("Superblock version: %d\n", f.Version())
	fmt.Printf("Committed size: %d bytes\n", f.CommittedSize())
	if info, err := os.Stat(filename); err == nil && uint64(info.Size()) > f.CommittedSize() {
		fmt.Printf("Uncommitted tail: %d bytes\n", uint64(info.Size())-f.CommittedSize())
	}
	fmt.Println()

	var stored uint64
	err = container.Walk(f, func(path string, obj any, err error) error {
		if err != nil {
			fmt.Printf("%q: ERROR: %v\n", path, err)
			return nil
		}
		switch o := obj.(type) {
		case *container.Group:
			fmt.Printf("Group %q:\n", path)
			fmt.Printf("  Datasets: %d\n", len(o.Datasets()))
			fmt.Printf("  Attrs: %s\n", formatAttrs(o.Attrs()))
			if len(o.Datasets()) == 0 && len(o.Attrs()) == 0 {
				fmt.Printf("  [EMPTY - no datasets or attrs]\n")
			}
		case *container.Dataset:
			stored += o.StoredBytes()
			fmt.Printf("  Dataset %q:\n", o.Name())
			fmt.Printf("    Shape: %v\n", o.Shape())
			fmt.Printf("    Dtype: %s\n", o.Dtype())
			fmt.Printf("    Chunks: %d (%d bytes stored)\n", o.Chunks(), o.StoredBytes())
			fmt.Printf("    Filters: %s\n", formatFilters(o.Filters()))
		}
		return nil
	})
	if err != nil {
		fmt.Printf("ERROR: walk failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Printf("Chunk bytes: %d\n", stored)
}

func formatAttrs(attrs map[string]any) string {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, attrs[k])
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func formatFilters(infos []filter.Info) string {
	if len(infos) == 0 {
		return "none"
	}
	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = filter.Name(info.ID)
		if len(info.ClientData) > 0 {
			names[i] += fmt.Sprintf("%v", info.ClientData)
		}
	}
	return strings.Join(names, " -> ")
}
