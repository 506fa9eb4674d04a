package looper

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPeakDB(t *testing.T) {
	assert.InDelta(t, 0.0, PeakDB([]float32{-0.5, 0.2, 0.5}), 1e-9)
	assert.InDelta(t, -20.0, PeakDB([]float32{0, 0.1, 0.05}), 1e-5)
	assert.True(t, math.IsInf(PeakDB([]float32{0.3, 0.3}), -1))
	assert.True(t, math.IsInf(PeakDB(nil), -1))
}

func TestCompressorGain(t *testing.T) {
	c := Compressor{Threshold: -30, Ratio: 4}

	quiet := []float32{0, 0.01}
	assert.Equal(t, float32(1), c.Gain(quiet), "below threshold is unity")

	tests := []struct {
		name  string
		block []float32
	}{
		{"at -20 dB", []float32{0, 0.1}},
		{"at 0 dB", []float32{-0.5, 0.5}},
		{"at +6 dB", []float32{-1, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			peak := PeakDB(tt.block)
			want := math.Pow(10, ((peak+30)*(1.0/4-1)+(-30)*(1.0/4-1))/20)
			assert.InDelta(t, want, float64(c.Gain(tt.block)), 1e-5)
		})
	}
}

func TestCompressorProcess(t *testing.T) {
	c := Compressor{Threshold: -30, Ratio: 4}
	block := []float32{0, 0.1, 0.05, 0.1}
	gain := c.Gain(block)

	c.Process(block)
	assert.InDeltaSlice(t, []float32{0, 0.1 * gain, 0.05 * gain, 0.1 * gain}, block, 1e-6)
}

func TestWaveshaperShape(t *testing.T) {
	w := NewWaveshaper(0.1)
	edge := float32(math.Atan(float64(999)*3/1000) * 0.8)
	mid := float32(math.Atan(1.5) * 0.8)

	assert.Equal(t, float32(0), w.Shape(0))
	assert.Equal(t, mid, w.Shape(0.5))
	assert.Equal(t, -mid, w.Shape(-0.5))
	assert.Equal(t, edge, w.Shape(1))
	assert.Equal(t, edge, w.Shape(2.5))
	assert.Equal(t, -edge, w.Shape(-1))
	assert.Equal(t, -edge, w.Shape(-3))
}

func TestWaveshaperNonFiniteInput(t *testing.T) {
	w := NewWaveshaper(0.1)
	edge := float32(math.Atan(float64(999)*3/1000) * 0.8)

	assert.Equal(t, edge, w.Shape(float32(math.Inf(1))))
	assert.Equal(t, -edge, w.Shape(float32(math.Inf(-1))))
	assert.Equal(t, edge, w.Shape(1e17))
	assert.Equal(t, -edge, w.Shape(-1e17))
	assert.Equal(t, float32(0), w.Shape(float32(math.NaN())))

	block := []float32{float32(math.Inf(1)), -1e17, float32(math.NaN())}
	assert.NotPanics(t, func() { w.Process(block) })
}

func TestWaveshaperMix(t *testing.T) {
	w := NewWaveshaper(0.1)
	block := []float32{0.5, -0.5, 0}
	mid := float32(math.Atan(1.5) * 0.8)

	w.Process(block)
	assert.InDeltaSlice(t, []float32{0.5*0.9 + mid*0.1, -0.5*0.9 - mid*0.1, 0}, block, 1e-6)
}

func TestRMS(t *testing.T) {
	assert.InDelta(t, 0.5, RMS([]float32{0.5, -0.5, 0.5, -0.5}), 1e-6)
	assert.Equal(t, float32(0), RMS(nil))
}
