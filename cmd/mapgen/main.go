package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

func main() {
	seed := flag.Int64("seed", 0, "random seed (0 = random)")
	size := flag.String("size", "100x60", "scene size as WxH")
	name := flag.String("name", "Wilderness", "scene name")
	crates := flag.Int("crates", 12, "number of pushable crates")
	out := flag.String("out", "", "output file (default: stdout)")
	flag.Parse()

	w, h, err := parseSize(*size)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}

	fmt.Fprintf(os.Stderr, "Generating %dx%d scene %q (seed %d)...\n", w, h, *name, *seed)
	sc := generate(*name, w, h, *seed, *crates)
	if err := sc.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: generated scene is invalid: %v\n", err)
		os.Exit(1)
	}

	data, err := yaml.Marshal(sc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling YAML: %v\n", err)
		os.Exit(1)
	}
	if *out == "" {
		os.Stdout.Write(data)
	} else {
		if err := os.WriteFile(*out, data, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Wrote %s (%d bytes)\n", *out, len(data))
	}

	counts := make(map[string]int)
	for _, row := range sc.Layers[0].Tiles {
		for _, r := range row {
			counts[legend[string(r)].Name]++
		}
	}
	names := make([]string, 0, len(counts))
	for n := range counts {
		names = append(names, n)
	}
	sort.Strings(names)
	fmt.Fprintf(os.Stderr, "\nTile distribution:\n")
	for _, n := range names {
		fmt.Fprintf(os.Stderr, "  %-15s %5d (%5.1f%%)\n", n, counts[n], float64(counts[n])/float64(w*h)*100)
	}
	fmt.Fprintf(os.Stderr, "Crates: %d\n", len(sc.Layers[0].Objects))
}

const minSide = 10

func parseSize(s string) (int, int, error) {
	ws, hs, ok := strings.Cut(s, "x")
	if !ok {
		return 0, 0, fmt.Errorf("size %q: want WxH", s)
	}
	w, err := side("width", ws)
	if err != nil {
		return 0, 0, err
	}
	h, err := side("height", hs)
	if err != nil {
		return 0, 0, err
	}
	return w, h, nil
}

func side(what, s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s %q: %w", what, s, err)
	}
	if n < minSide {
		return 0, fmt.Errorf("%s %d is below %d", what, n, minSide)
	}
	return n, nil
}
