//go:build ignore

// generate_testdata.go creates standard record datasets for benchmarking.
// Usage: go run scripts/generate_testdata.go
//
// Creates:
//	tests/testdata/benchmark/small.jsonl   (100 records)
//	tests/testdata/benchmark/medium.jsonl  (1000 records)
//	tests/testdata/benchmark/large.jsonl   (20000 records)
//	tests/testdata/benchmark/huge.jsonl    (200000 records)
package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vanderheijden86/longlist/pkg/testutil"
)

type dataset struct {
	name string
	size int
}

var datasets = []dataset{
	{"small", 100},
	{"medium", 1000},
	{"large", 20000},
	{"huge", 200000},
}

func main() {
	outputDir := "tests/testdata/benchmark"
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create output directory: %v\n", err)
		os.Exit(1)
	}

	for _, ds := range datasets {
		fmt.Printf("Generating %s dataset (%d records)...\n", ds.name, ds.size)

		gen := testutil.New(testutil.GeneratorConfig{Seed: int64(ds.size)})
		records := gen.Records(ds.size)

		path := filepath.Join(outputDir, ds.name+".jsonl")
		f, err := os.Create(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create %s: %v\n", path, err)
			os.Exit(1)
		}
		w := bufio.NewWriter(f)
		for _, r := range records {
			line, err := r.MarshalJSONL()
			if err != nil {
				fmt.Fprintf(os.Stderr, "Failed to encode record: %v\n", err)
				os.Exit(1)
			}
			w.Write(line)
			w.WriteByte('\n')
		}
		if err := w.Flush(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", path, err)
			os.Exit(1)
		}
		f.Close()
		fmt.Printf("  wrote %s\n", path)
	}
}
