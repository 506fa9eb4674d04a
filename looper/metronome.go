package looper

import "fmt"

// BuildMetronome tiles the clicks into one measure: the big click on beat
// one, the little click on beats two to four, each padded with silence to
// a full beat
func BuildMetronome(t Timing, big, little []float32) ([]float32, error) {
	if len(big) > t.SamplesPerBeat {
		return nil, fmt.Errorf("%w: big click is %d samples, a beat is %d", ErrConfig, len(big), t.SamplesPerBeat)
	}
	if len(little) > t.SamplesPerBeat {
		return nil, fmt.Errorf("%w: little click is %d samples, a beat is %d", ErrConfig, len(little), t.SamplesPerBeat)
	}

	measure := make([]float32, 0, t.SamplesPerMeasure)
	for beat := range BeatsPerMeasure {
		click := little
		if beat == 0 {
			click = big
		}
		measure = append(measure, click...)
		measure = append(measure, make([]float32, t.SamplesPerBeat-len(click))...)
	}

	if len(measure) != t.SamplesPerMeasure {
		return nil, fmt.Errorf("%w: metronome is %d samples, measure is %d",
			ErrProtocol, len(measure), t.SamplesPerMeasure)
	}
	return measure, nil
}
