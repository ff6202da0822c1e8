package main

import (
	"math/rand"
	"strings"

	"happy-place-engine/internal/maps"
	"happy-place-engine/internal/world"
)

const (
	cGrass   = '.'
	cTall    = ';'
	cFlowers = '*'
	cSand    = ':'
	cShallow = ','
	cWater   = '~'
	cTree    = 'T'
	cRock    = '^'
	cWall    = '#'
)

var legend = map[string]maps.Tile{
	string(cGrass):   {Char: ".", Fg: "green", Name: "grass"},
	string(cTall):    {Char: ";", Fg: "bright_green", Name: "tall_grass"},
	string(cFlowers): {Char: "*", Fg: "bright_red", Name: "flowers"},
	string(cSand):    {Char: "~", Fg: "yellow", Name: "sand"},
	string(cShallow): {Char: "~", Fg: "cyan", Name: "shallow_water"},
	string(cWater):   {Char: "~", Fg: "blue", Bg: "#000044", Name: "water", Tag: world.TagSolid},
	string(cTree):    {Char: "T", Fg: "green", Name: "tree", Tag: world.TagSolid},
	string(cRock):    {Char: "▒", Fg: "gray", Name: "rock", Tag: world.TagSolid},
	string(cWall):    {Char: "#", Fg: "gray", Name: "wall", Tag: world.TagSolid},
}

func walkable(c rune) bool {
	return legend[string(c)].Tag == ""
}

func classify(elev, moist, detail float64) rune {
	switch {
	case elev < 0.30:
		return cWater
	case elev < 0.36:
		return cShallow
	case elev < 0.40:
		return cSand
	case elev < 0.55:
		switch {
		case moist > 0.62:
			return cFlowers
		case moist > 0.5:
			return cTall
		}
		return cGrass
	case elev < 0.68:
		if moist > 0.55 || detail > 0.7 {
			return cTree
		}
		return cGrass
	case elev < 0.74:
		return cRock
	}
	return cWall
}

// generate builds a walled wilderness with a clearing at the spawn point
// and a scattering of pushable crates.
func generate(name string, w, h int, seed int64, crates int) *maps.Scene {
	elevation := valueNoise{seed: uint64(seed)}
	moisture := valueNoise{seed: uint64(seed) + 1}
	detail := valueNoise{seed: uint64(seed) + 2}

	grid := make([][]rune, h)
	for y := range grid {
		grid[y] = make([]rune, w)
		for x := range grid[y] {
			fx, fy := float64(x), float64(y)
			grid[y][x] = classify(
				elevation.fractal(fx, fy, 0.05, 4),
				moisture.fractal(fx, fy, 0.07, 3),
				detail.fractal(fx, fy, 0.2, 2),
			)
			if x == 0 || y == 0 || x == w-1 || y == h-1 {
				grid[y][x] = cWall
			}
		}
	}

	sx, sy := w/2, h/2
	for y := max(sy-2, 1); y <= min(sy+2, h-2); y++ {
		for x := max(sx-3, 1); x <= min(sx+3, w-2); x++ {
			grid[y][x] = cGrass
		}
	}

	rng := rand.New(rand.NewSource(seed))
	var objects []maps.Object
	for tries := 0; len(objects) < crates && tries < crates*50; tries++ {
		x, y := 1+rng.Intn(w-2), 1+rng.Intn(h-2)
		if !walkable(grid[y][x]) || (abs(x-sx) <= 3 && abs(y-sy) <= 2) {
			continue
		}
		grid[y][x] = cGrass
		objects = append(objects, maps.Object{
			Name:      crateName(len(objects)),
			Pos:       maps.Vec{X: x, Y: y},
			Textures:  []maps.Texture{{Lines: []string{"▣"}, Fg: "yellow"}},
			Colliders: []maps.Collider{{Tag: world.TagPushable, Size: &maps.Vec{X: 1, Y: 1}}},
		})
	}

	rows := make([]string, h)
	for y, r := range grid {
		rows[y] = string(r)
	}

	return &maps.Scene{
		Name:  name,
		Spawn: maps.Vec{X: sx, Y: sy},
		Layers: []maps.Layer{{
			Name:     "ground",
			Collides: true,
			Tiles:    rows,
			Legend:   legend,
			Objects:  objects,
		}},
	}
}

func crateName(i int) string {
	var sb strings.Builder
	sb.WriteString("crate_")
	sb.WriteByte(byte('a' + i%26))
	if i >= 26 {
		sb.WriteString(strings.Repeat("'", i/26))
	}
	return sb.String()
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
