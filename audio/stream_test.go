package audio

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scripted struct {
	errs  []error
	calls int
}

func (s *scripted) Process(in, out []float32) error {
	copy(out, in)
	var err error
	if s.calls < len(s.errs) {
		err = s.errs[s.calls]
	}
	s.calls++
	return err
}

func TestGuardKeepsFirstError(t *testing.T) {
	first := errors.New("underrun")
	p := &scripted{errs: []error{nil, first, errors.New("later")}}
	g := newGuard(p)
	s := &Stream{guard: g}

	in := []float32{0.5, -0.5}
	out := make([]float32, 2)

	g.process(in, out)
	assert.Equal(t, in, out)
	assert.NoError(t, s.Err())
	select {
	case <-s.Failed():
		t.Fatal("failed before any error")
	default:
	}

	g.process(in, out)
	g.process(in, out)
	assert.Equal(t, 3, p.calls)

	select {
	case <-s.Failed():
	default:
		t.Fatal("not failed after an error")
	}
	require.Error(t, s.Err())
	assert.Same(t, first, s.Err())
}
