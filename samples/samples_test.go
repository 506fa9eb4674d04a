package samples

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-looper/looper"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "click.wav")
	in := []float32{0, 0.5, -0.5, 0.25, -1, 1, 0.125}

	require.NoError(t, Save(path, in, 48000))

	out, err := Load(path, 48000)
	require.NoError(t, err)
	assert.InDeltaSlice(t, in, out, 1e-6)
}

func TestSaveClips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loud.wav")
	require.NoError(t, Save(path, []float32{2, -3}, 44100))

	out, err := Load(path, 44100)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float32{1, -1}, out, 1e-6)
}

func TestLoadSampleRateMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "click.wav")
	require.NoError(t, Save(path, []float32{0.5}, 44100))

	_, err := Load(path, 48000)
	assert.ErrorIs(t, err, ErrSampleRate)
}

func TestLoadInvalidFiles(t *testing.T) {
	_, err := Load("/nonexistent/click.wav", 48000)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open")

	path := filepath.Join(t.TempDir(), "invalid.wav")
	require.NoError(t, os.WriteFile(path, []byte("not a wav file"), 0o644))
	_, err = Load(path, 48000)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid WAV file")
}

func TestLoadMixesDownStereo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stereo.wav")
	f, err := os.Create(path)
	require.NoError(t, err)

	enc := wav.NewEncoder(f, 48000, 16, 2, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 2, SampleRate: 48000},
		Data:           []int{16384, 0, -32767, -32767, 8192, 8192},
		SourceBitDepth: 16,
	}
	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())

	out, err := Load(path, 48000)
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.InDelta(t, 16384.0/2/32767, out[0], 1e-6)
	assert.InDelta(t, -1, out[1], 1e-6)
	assert.InDelta(t, 8192.0/32767, out[2], 1e-6)
}

// writeFloatWAV writes a mono IEEE float WAV
func writeFloatWAV(t *testing.T, path string, rate int, data []float32) {
	t.Helper()
	var b bytes.Buffer
	le := binary.LittleEndian
	b.WriteString("RIFF")
	binary.Write(&b, le, uint32(36+4*len(data)))
	b.WriteString("WAVEfmt ")
	binary.Write(&b, le, uint32(16))
	binary.Write(&b, le, uint16(3))
	binary.Write(&b, le, uint16(1))
	binary.Write(&b, le, uint32(rate))
	binary.Write(&b, le, uint32(rate*4))
	binary.Write(&b, le, uint16(4))
	binary.Write(&b, le, uint16(32))
	b.WriteString("data")
	binary.Write(&b, le, uint32(4*len(data)))
	binary.Write(&b, le, data)
	require.NoError(t, os.WriteFile(path, b.Bytes(), 0o644))
}

func TestLoadFloatWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "float.wav")
	in := []float32{0.5, -0.25, 0.75, 0}
	writeFloatWAV(t, path, 48000, in)

	out, err := Load(path, 48000)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	_, err = sampleDecoder(floatFormat, 64)
	assert.Error(t, err)
	_, err = sampleDecoder(2, 16)
	assert.Error(t, err)
}

func TestClick(t *testing.T) {
	c := Click(48000, 1000, 10*time.Millisecond, 0.5)
	require.Len(t, c, 480)
	assert.Equal(t, float32(0), c[0])
	for i, s := range c {
		assert.LessOrEqual(t, s, float32(0.5), "sample %d", i)
		assert.GreaterOrEqual(t, s, float32(-0.5), "sample %d", i)
	}

	big, little := DefaultClicks(48000)
	assert.Less(t, len(big), 48000*60/300, "clicks fit a beat even at 300 bpm")
	assert.Less(t, len(little), len(big))
}

func TestLoadClicksFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.wav")
	require.NoError(t, Save(path, []float32{0.5, 0.25}, 48000))

	big, little, err := LoadClicks(path, "", 48000)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float32{0.5, 0.25}, big, 1e-6)
	_, wantLittle := DefaultClicks(48000)
	assert.Equal(t, wantLittle, little)

	_, _, err = LoadClicks("", "/nonexistent/little.wav", 48000)
	assert.Error(t, err)
}

func TestExportSession(t *testing.T) {
	base := t.TempDir()
	takes := []looper.Take{
		{Index: 1, Length: 1, Samples: []float32{0.5, 0.5, 0.5}},
		{Index: 12, Length: 2, Samples: []float32{0.25, -0.25, 0.25, -0.25}},
	}

	dir, err := Export(base, "first take", 80, 48000, takes)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "loop_01.wav"))
	assert.FileExists(t, filepath.Join(dir, "loop_12.wav"))

	m, err := ReadManifest(dir)
	require.NoError(t, err)
	assert.Equal(t, 80, m.BPM)
	assert.Equal(t, []LoopEntry{
		{Index: 1, Measures: 1, File: "loop_01.wav"},
		{Index: 12, Measures: 2, File: "loop_12.wav"},
	}, m.Loops)

	loop, err := Load(filepath.Join(dir, "loop_12.wav"), 48000)
	require.NoError(t, err)
	assert.InDeltaSlice(t, takes[1].Samples, loop, 1e-6)

	sessions, err := ListSessions(base)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "first-take", sessions[0].Name)
	assert.Equal(t, dir, sessions[0].Dir)
}

func TestExportNothing(t *testing.T) {
	dir, err := Export(t.TempDir(), "", 80, 48000, nil)
	require.NoError(t, err)
	assert.Empty(t, dir)
}

func TestListSessionsMissingDir(t *testing.T) {
	sessions, err := ListSessions(filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, err)
	assert.Empty(t, sessions)
}
