package samples

import (
	"math"
	"time"
)

// Click synthesizes an exponentially decaying sine burst
func Click(sampleRate int, freq float64, length time.Duration, gain float32) []float32 {
	n := int(length.Seconds() * float64(sampleRate))
	decay := length.Seconds() / 5
	out := make([]float32, n)
	for i := range out {
		t := float64(i) / float64(sampleRate)
		out[i] = gain * float32(math.Sin(2*math.Pi*freq*t)*math.Exp(-t/decay))
	}
	return out
}

// DefaultClicks are used when no click files are configured: an accented
// click for beat one and a softer, lower one for the other beats
func DefaultClicks(sampleRate int) (big, little []float32) {
	big = Click(sampleRate, 1760, 40*time.Millisecond, 0.8)
	little = Click(sampleRate, 880, 30*time.Millisecond, 0.4)
	return big, little
}

// LoadClicks loads both click files, falling back to DefaultClicks for an
// empty path
func LoadClicks(bigPath, littlePath string, sampleRate int) (big, little []float32, err error) {
	big, little = DefaultClicks(sampleRate)
	if bigPath != "" {
		if big, err = Load(bigPath, sampleRate); err != nil {
			return nil, nil, err
		}
	}
	if littlePath != "" {
		if little, err = Load(littlePath, sampleRate); err != nil {
			return nil, nil, err
		}
	}
	return big, little, nil
}
