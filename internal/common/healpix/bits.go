package healpix

import (
	"math"
	"strings"
)

// spreadBits interleaves the low 32 bits of v with zeros: bit i moves to bit 2i.
func spreadBits(v int64) int64 {
	var out int64
	for i := uint(0); i < 32; i++ {
		out |= ((v >> i) & 1) << (2 * i)
	}
	return out
}

// compressBits is the inverse of spreadBits on the even bits of v.
func compressBits(v int64) int64 {
	var out int64
	for i := uint(0); i < 32; i++ {
		out |= ((v >> (2 * i)) & 1) << i
	}
	return out
}

func isqrt(v int64) int64 {
	r := int64(math.Sqrt(float64(v) + 0.5))
	for r*r > v {
		r--
	}
	for (r+1)*(r+1) <= v {
		r++
	}
	return r
}

func imodulo(v1, v2 int64) int64 {
	m := v1 % v2
	if m < 0 {
		m += v2
	}
	return m
}

func fmodulo(v1, v2 float64) float64 {
	if v1 >= 0 {
		if v1 < v2 {
			return v1
		}
		return math.Mod(v1, v2)
	}
	tmp := math.Mod(v1, v2) + v2
	if tmp == v2 {
		return 0
	}
	return tmp
}

func clamp(z float64) float64 {
	if z > 1 {
		return 1
	}
	if z < -1 {
		return -1
	}
	return z
}

func lower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
