package looper

import (
	"math"

	"github.com/tphakala/simd/f32"
)

// Compressor is a block-rate compressor without attack or release. The
// level is the peak-to-peak amplitude of the block in dB, so the gain jumps
// when the block crosses the threshold
type Compressor struct {
	Threshold float64 // dB
	Ratio     float64
}

// PeakDB returns 20*log10(max-min) over block. Silence is -Inf
func PeakDB(block []float32) float64 {
	if len(block) == 0 {
		return math.Inf(-1)
	}
	hi, lo := block[0], block[0]
	for _, x := range block[1:] {
		if x > hi {
			hi = x
		} else if x < lo {
			lo = x
		}
	}
	return 20 * math.Log10(float64(hi-lo))
}

// Gain returns the scale factor for block
func (c Compressor) Gain(block []float32) float32 {
	peak := PeakDB(block)
	if peak < c.Threshold {
		return 1
	}
	slope := 1/c.Ratio - 1
	return float32(math.Pow(10, ((peak-c.Threshold)*slope+c.Threshold*slope)/20))
}

// Process scales block in place
func (c Compressor) Process(block []float32) {
	if g := c.Gain(block); g != 1 {
		f32.Scale(block, block, g)
	}
}

const shaperSize = 1000

// Waveshaper is a table-based arctangent distortion mixed with the dry signal
type Waveshaper struct {
	table [shaperSize]float32
	Mix   float32
}

// NewWaveshaper builds the shaping table. mix is the wet share in [0, 1]
func NewWaveshaper(mix float32) *Waveshaper {
	w := &Waveshaper{Mix: mix}
	for i := range w.table {
		w.table[i] = float32(math.Atan(float64(i)*3/shaperSize) * 0.8)
	}
	return w
}

// Shape returns the wet value for x. Inputs beyond ±1 clamp to the last
// entry and NaN shapes to 0
func (w *Waveshaper) Shape(x float32) float32 {
	switch {
	case x >= 1:
		return w.table[shaperSize-1]
	case x <= -1:
		return -w.table[shaperSize-1]
	case x != x:
		return 0
	}
	i := int(x * shaperSize)
	if i < 0 {
		return -w.table[min(-i, shaperSize-1)]
	}
	return w.table[min(i, shaperSize-1)]
}

// Process distorts block in place
func (w *Waveshaper) Process(block []float32) {
	dry := 1 - w.Mix
	for i, x := range block {
		block[i] = x*dry + w.Shape(x)*w.Mix
	}
}

// RMS returns the root-mean-square level of block
func RMS(block []float32) float32 {
	if len(block) == 0 {
		return 0
	}
	sum := f32.DotProductUnsafe(block, block)
	return float32(math.Sqrt(float64(sum) / float64(len(block))))
}
