// Command memlabstat replays a trace of allocator operations against a
// heapalloc.Heap and reports efficiency statistics, grounded on the
// teacher's scripts/benchmark_parser.go: a flag-driven, scanner-based
// line parser that turns a text trace into a report.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/heapkit/memlab/block"
	"github.com/heapkit/memlab/heapalloc"
	"github.com/heapkit/memlab/memstatus"
	"github.com/heapkit/memlab/pages"
)

var (
	inputFile  = flag.String("input", "", "Trace file of allocator operations (stdin if not specified)")
	outputFile = flag.String("output", "", "Output report file (stdout if not specified)")
	pageSize   = flag.Int("page-size", heapalloc.DefaultPageSize, "Page size for the simulated heap")
	maxHeap    = flag.Int("max-heap", 64<<20, "Maximum heap size for the simulated heap")
	quiet      = flag.Bool("quiet", false, "Suppress progress output")
)

// Trace lines:
//
//	alloc <size>          -> allocates, remembers the result under the next free label
//	free <label>          -> releases a previously allocated label
//	resize <label> <size> -> resizes a previously allocated label; the label
//	                         then refers to the result, which may have moved
//
// Labels are assigned sequentially starting at 0, in the order `alloc`
// lines appear, so a trace can reference "the 3rd thing we allocated"
// without tracking real pointers.
func main() {
	flag.Parse()

	var scanner *bufio.Scanner
	var inputF *os.File
	if *inputFile != "" {
		f, err := os.Open(*inputFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening input file: %v\n", err)
			os.Exit(1)
		}
		inputF = f
		scanner = bufio.NewScanner(f)
	} else {
		scanner = bufio.NewScanner(os.Stdin)
	}

	src := pages.NewSim(*pageSize, *maxHeap)
	h, err := heapalloc.New(heapalloc.Config{Source: src})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating heap: %v\n", err)
		os.Exit(1)
	}

	ops, errs := replay(scanner, h)
	if !*quiet {
		fmt.Fprintf(os.Stderr, "Replayed %d operations (%d errors)\n", ops, errs)
	}

	report := generateReport(h)

	if *outputFile != "" {
		if err := os.WriteFile(*outputFile, []byte(report), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output file: %v\n", err)
			if inputF != nil {
				inputF.Close()
			}
			os.Exit(1)
		}
		if !*quiet {
			fmt.Fprintf(os.Stderr, "Report written to %s\n", *outputFile)
		}
	} else {
		fmt.Fprint(os.Stdout, report)
	}

	if inputF != nil {
		inputF.Close()
	}
}

func replay(scanner *bufio.Scanner, h *heapalloc.Heap) (ops, errs int) {
	labels := make(map[int]heapalloc.Ptr)
	nextLabel := 0

	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}

		switch fields[0] {
		case "alloc":
			if len(fields) != 2 {
				errs++
				continue
			}
			size, err := strconv.Atoi(fields[1])
			if err != nil {
				errs++
				continue
			}
			p, _, err := h.Allocate(size)
			if err != nil {
				errs++
				continue
			}
			labels[nextLabel] = p
			nextLabel++
			ops++

		case "free":
			if len(fields) != 2 {
				errs++
				continue
			}
			label, err := strconv.Atoi(fields[1])
			if err != nil {
				errs++
				continue
			}
			p, ok := labels[label]
			if !ok {
				errs++
				continue
			}
			h.Release(p)
			delete(labels, label)
			ops++

		case "resize":
			if len(fields) != 3 {
				errs++
				continue
			}
			label, err1 := strconv.Atoi(fields[1])
			size, err2 := strconv.Atoi(fields[2])
			if err1 != nil || err2 != nil {
				errs++
				continue
			}
			p, ok := labels[label]
			if !ok {
				errs++
				continue
			}
			np, _, err := h.Resize(p, size)
			if err != nil {
				errs++
				continue
			}
			labels[label] = np
			ops++

		default:
			errs++
		}
	}

	return ops, errs
}

func generateReport(h *heapalloc.Heap) string {
	var sb strings.Builder

	sb.WriteString("# Allocator Efficiency Report\n\n")
	sb.WriteString(fmt.Sprintf("Status: %s\n\n", memstatus.Get()))
	sb.WriteString(fmt.Sprintf("Counters: %s\n\n", h.Stats()))

	free := h.FreeListHeads()
	quick := h.QuickLists()

	var totalFreeBytes uint64
	var totalFreeBlocks int
	for _, snap := range free {
		totalFreeBlocks += snap.Len
		for _, off := range snap.Offsets {
			totalFreeBytes += block.ReadHeader(h.Bytes(), off).Size
		}
	}
	var totalQuickBlocks int
	for _, snap := range quick {
		totalQuickBlocks += snap.Len
	}

	sb.WriteString("## Free lists\n\n")
	for _, snap := range free {
		if snap.Len == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("- class %d: %d block(s)\n", snap.Class, snap.Len))
	}
	sb.WriteString(fmt.Sprintf("\nTotal free blocks: %d, total free bytes: %d\n\n", totalFreeBlocks, totalFreeBytes))

	sb.WriteString("## Quick lists\n\n")
	for _, snap := range quick {
		if snap.Len == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("- class %d: %d block(s)\n", snap.Class, snap.Len))
	}
	sb.WriteString(fmt.Sprintf("\nTotal quick-listed blocks: %d\n", totalQuickBlocks))

	return sb.String()
}
