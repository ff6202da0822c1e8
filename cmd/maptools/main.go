package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"happy-place-engine/internal/game"
	"happy-place-engine/internal/geom"
	"happy-place-engine/internal/maps"
	"happy-place-engine/internal/world"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "validate":
		if len(args) != 1 {
			fmt.Fprintln(os.Stderr, "Usage: maptools validate <scenes-dir>")
			os.Exit(1)
		}
		os.Exit(runValidate(args[0]))
	case "viz":
		if len(args) != 1 {
			fmt.Fprintln(os.Stderr, "Usage: maptools viz <scene-file>")
			os.Exit(1)
		}
		os.Exit(runViz(args[0]))
	case "stats":
		if len(args) != 1 {
			fmt.Fprintln(os.Stderr, "Usage: maptools stats <scene-file>")
			os.Exit(1)
		}
		os.Exit(runStats(args[0]))
	case "all":
		if len(args) != 1 {
			fmt.Fprintln(os.Stderr, "Usage: maptools all <scenes-dir>")
			os.Exit(1)
		}
		os.Exit(runAll(args[0]))
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Usage: maptools <command> <path>

Commands:
  validate <scenes-dir>   Build every scene and check spawn points
  viz      <scene-file>   Render the whole scene as text
  stats    <scene-file>   Show tile distribution and object counts
  all      <scenes-dir>   Run validate + viz + stats for all scenes`)
}

// --- validate ---

func runValidate(dir string) int {
	all, err := maps.LoadDir(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FAIL: %v\n", err)
		return 1
	}

	errors := 0
	for _, name := range sortedNames(all) {
		fmt.Printf("Validating %q...\n", name)
		problems := validateScene(all[name])
		for _, p := range problems {
			fmt.Printf("  ERROR: %s\n", p)
		}
		errors += len(problems)
		if len(problems) == 0 {
			b := all[name].Bounds()
			fmt.Printf("  OK (%dx%d, %d layers)\n", b.X, b.Y, len(all[name].Layers))
		}
	}

	if errors > 0 {
		fmt.Printf("\n%d error(s) found\n", errors)
		return 1
	}
	fmt.Printf("\nAll %d scenes valid\n", len(all))
	return 0
}

// validateScene builds sc and reports anything that would stop a player
// from spawning.
func validateScene(sc *maps.Scene) []string {
	w, err := game.NewWorld(sc, nil)
	if err != nil {
		return []string{err.Error()}
	}
	var problems []string
	spawn := w.Spawn
	if b := sc.Bounds(); b.X > 0 && (spawn.X < 0 || spawn.Y < 0 || spawn.X >= b.X || spawn.Y >= b.Y) {
		problems = append(problems, fmt.Sprintf("spawn %v is outside the %dx%d grid", spawn, b.X, b.Y))
	}
	if l, ok := w.Map.LayerByName(w.SpawnLayer); ok && l.Collides {
		l.Each(func(o *world.Object) bool {
			if _, blocked := o.Footprint()[spawn]; blocked {
				problems = append(problems, fmt.Sprintf("spawn %v is covered by %q", spawn, o.Name))
			}
			return true
		})
	}
	return problems
}

// --- viz ---

func runViz(path string) int {
	sc, err := maps.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	lines, err := renderScene(sc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	b := sc.Bounds()
	fmt.Printf("%s (%dx%d)\n", sc.Name, b.X, b.Y)
	for _, line := range lines {
		fmt.Println(line)
	}
	fmt.Printf("\nSpawn: (%d,%d)\n", sc.Spawn.X, sc.Spawn.Y)
	return 0
}

// renderScene draws every visible layer through one camera sized to the
// tile grid.
func renderScene(sc *maps.Scene) ([]string, error) {
	m, err := maps.Build(sc, nil)
	if err != nil {
		return nil, err
	}
	b := sc.Bounds()
	if b.X == 0 || b.Y == 0 {
		b = maps.Vec{X: 40, Y: 20}
	}
	cam := world.NewCamera("viz", geom.Point{}, geom.UPt(uint32(b.X), uint32(b.Y)))
	cam.Layers = m.LayerIDs()
	m.AddCamera(cam)
	if err := cam.Render(); err != nil {
		return nil, err
	}
	return cam.Image().Lines(), nil
}

// --- stats ---

func runStats(path string) int {
	sc, err := maps.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	b := sc.Bounds()
	fmt.Printf("%s (%dx%d = %d tiles)\n\n", sc.Name, b.X, b.Y, b.X*b.Y)

	for _, l := range sc.Layers {
		counts, blocking := tileCounts(l)
		total := 0
		for _, c := range counts {
			total += c
		}
		fmt.Printf("Layer %q: %d objects\n", l.Name, len(l.Objects))
		if total == 0 {
			continue
		}
		names := make([]string, 0, len(counts))
		for n := range counts {
			names = append(names, n)
		}
		sort.Slice(names, func(i, j int) bool {
			if counts[names[i]] != counts[names[j]] {
				return counts[names[i]] > counts[names[j]]
			}
			return names[i] < names[j]
		})
		for _, n := range names {
			pct := float64(counts[n]) / float64(total) * 100
			bar := strings.Repeat("█", int(pct/2))
			fmt.Printf("  %-14s %5d (%5.1f%%) %s\n", n, counts[n], pct, bar)
		}
		fmt.Printf("  Tagged: %d/%d (%.1f%%)\n", blocking, total, float64(blocking)/float64(total)*100)
	}
	return 0
}

// tileCounts counts tiles by legend name and how many carry a collider tag.
func tileCounts(l maps.Layer) (map[string]int, int) {
	counts := make(map[string]int)
	tagged := 0
	for _, row := range l.Tiles {
		for _, r := range row {
			t, ok := l.Legend[string(r)]
			if !ok {
				counts["empty"]++
				continue
			}
			counts[t.Name]++
			if t.Tag != "" {
				tagged++
			}
		}
	}
	return counts, tagged
}

// --- all ---

func runAll(dir string) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading directory: %v\n", err)
		return 1
	}

	fmt.Println("=== VALIDATE ===")
	if code := runValidate(dir); code != 0 {
		return code
	}

	for _, entry := range entries {
		if entry.IsDir() || !maps.IsSceneFile(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		fmt.Printf("\n=== VIZ: %s ===\n", entry.Name())
		runViz(path)
		fmt.Printf("\n=== STATS: %s ===\n", entry.Name())
		runStats(path)
	}
	return 0
}

func sortedNames(all map[string]*maps.Scene) []string {
	names := make([]string, 0, len(all))
	for n := range all {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
