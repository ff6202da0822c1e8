package main

import "math"

// valueNoise is seeded lattice noise with smoothstep interpolation, in [0,1).
type valueNoise struct {
	seed uint64
}

func (n valueNoise) lattice(x, y int) float64 {
	h := n.seed ^ uint64(int64(x))*0x9e3779b97f4a7c15 ^ uint64(int64(y))*0xc2b2ae3d27d4eb4f
	h ^= h >> 33
	h *= 0xff51afd7ed558ccd
	h ^= h >> 33
	return float64(h>>11) / (1 << 53)
}

func smoothstep(t float64) float64 {
	return t * t * (3 - 2*t)
}

func (n valueNoise) at(x, y float64) float64 {
	x0, y0 := math.Floor(x), math.Floor(y)
	ix, iy := int(x0), int(y0)
	tx, ty := smoothstep(x-x0), smoothstep(y-y0)

	top := lerp(n.lattice(ix, iy), n.lattice(ix+1, iy), tx)
	bottom := lerp(n.lattice(ix, iy+1), n.lattice(ix+1, iy+1), tx)
	return lerp(top, bottom, ty)
}

// fractal sums octaves of noise and normalises the result back to [0,1).
func (n valueNoise) fractal(x, y, freq float64, octaves int) float64 {
	var sum, norm float64
	amp := 1.0
	for i := 0; i < octaves; i++ {
		sum += amp * n.at(x*freq, y*freq)
		norm += amp
		freq *= 2
		amp *= 0.5
	}
	return sum / norm
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
