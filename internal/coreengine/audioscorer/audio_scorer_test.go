package audioscorer

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeObjectStore serves recordings from memory. Missing keys produce the
// same error shape the object storage client produces.
type fakeObjectStore struct {
	objects map[string][]byte
	err     error
}

func (f *fakeObjectStore) GetFileBytes(_ context.Context, objectName string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	data, ok := f.objects[objectName]
	if !ok {
		return nil, minio.ErrorResponse{Code: "NoSuchKey", Message: "The specified key does not exist."}
	}
	return data, nil
}

// encodeTestWAV writes mono 16-bit PCM samples to a temporary WAV file and
// returns its bytes. The encoder needs a seekable writer, hence the file.
func encodeTestWAV(t *testing.T, samples []int, sampleRate int) []byte {
	t.Helper()

	path := filepath.Join(t.TempDir(), "answer.wav")
	out, err := os.Create(path)
	require.NoError(t, err)

	enc := wav.NewEncoder(out, sampleRate, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           samples,
		SourceBitDepth: 16,
	}
	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())
	require.NoError(t, out.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

// speechLikeSamples produces a pulsed sine so the signal has both energy and
// onsets for the tempo estimator to latch onto.
func speechLikeSamples(sampleRate int, seconds float64) []int {
	n := int(float64(sampleRate) * seconds)
	samples := make([]int, n)
	for i := 0; i < n; i++ {
		tSec := float64(i) / float64(sampleRate)
		// 2 Hz on/off bursts of a 220 Hz tone.
		gate := 0.0
		if math.Mod(tSec*2, 1.0) < 0.5 {
			gate = 1.0
		}
		samples[i] = int(gate * 0.5 * 16384 * math.Sin(2*math.Pi*220*tSec))
	}
	return samples
}

func TestAnalyze(t *testing.T) {
	t.Run("empty object name", func(t *testing.T) {
		scorer := NewScorer(&fakeObjectStore{})

		score := scorer.Analyze(context.Background(), "")

		assert.Equal(t, StatusFileNotFound, score.Status)
		assert.Zero(t, score.ConfidenceScore)
		assert.Zero(t, score.SpeechRate)
	})

	t.Run("missing object", func(t *testing.T) {
		scorer := NewScorer(&fakeObjectStore{objects: map[string][]byte{}})

		score := scorer.Analyze(context.Background(), "recordings/missing.wav")

		assert.Equal(t, StatusFileNotFound, score.Status)
		assert.Zero(t, score.ConfidenceScore)
		assert.Zero(t, score.SpeechRate)
	})

	t.Run("fetch failure carries detail", func(t *testing.T) {
		scorer := NewScorer(&fakeObjectStore{err: errors.New("connection reset")})

		score := scorer.Analyze(context.Background(), "recordings/a.wav")

		assert.Contains(t, score.Status, StatusErrorPrefix)
		assert.Contains(t, score.Status, "connection reset")
		assert.Zero(t, score.ConfidenceScore)
	})

	t.Run("corrupt bytes are a decode error", func(t *testing.T) {
		store := &fakeObjectStore{objects: map[string][]byte{
			"recordings/bad.wav": []byte("definitely not a wav file"),
		}}
		scorer := NewScorer(store)

		score := scorer.Analyze(context.Background(), "recordings/bad.wav")

		assert.Contains(t, score.Status, StatusErrorPrefix)
		assert.Zero(t, score.ConfidenceScore)
		assert.Zero(t, score.SpeechRate)
	})

	t.Run("valid recording scores within bounds", func(t *testing.T) {
		wavBytes := encodeTestWAV(t, speechLikeSamples(8000, 3.0), 8000)
		store := &fakeObjectStore{objects: map[string][]byte{
			"recordings/good.wav": wavBytes,
		}}
		scorer := NewScorer(store)

		score := scorer.Analyze(context.Background(), "recordings/good.wav")

		require.Equal(t, StatusSuccess, score.Status)
		assert.GreaterOrEqual(t, score.ConfidenceScore, 0.0)
		assert.LessOrEqual(t, score.ConfidenceScore, confidenceBound)
		assert.Greater(t, score.ConfidenceScore, 0.0, "pulsed tone should produce nonzero energy")
		assert.GreaterOrEqual(t, score.SpeechRate, 0.0)
	})
}

func TestMeanFrameRMS(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		assert.Zero(t, meanFrameRMS(nil))
	})

	t.Run("constant signal", func(t *testing.T) {
		samples := make([]float64, analysisFrameSize*2)
		for i := range samples {
			samples[i] = 0.5
		}
		assert.InDelta(t, 0.5, meanFrameRMS(samples), 1e-9)
	})

	t.Run("short signal uses one frame", func(t *testing.T) {
		assert.InDelta(t, 0.25, meanFrameRMS([]float64{0.25, 0.25, 0.25}), 1e-9)
	})
}

func TestEstimateTempo(t *testing.T) {
	t.Run("silence has no tempo", func(t *testing.T) {
		assert.Zero(t, estimateTempo(make([]float64, analysisHopSize*8), 8000))
	})

	t.Run("too short to correlate", func(t *testing.T) {
		assert.Zero(t, estimateTempo(make([]float64, analysisHopSize), 8000))
	})

	t.Run("result stays in the plausible range", func(t *testing.T) {
		raw := speechLikeSamples(8000, 3.0)
		samples := make([]float64, len(raw))
		for i, v := range raw {
			samples[i] = float64(v) / 32768
		}

		tempo := estimateTempo(samples, 8000)
		if tempo != 0 {
			// Lag truncation can push the estimate slightly past the
			// nominal bounds, so allow a small margin.
			assert.GreaterOrEqual(t, tempo, minTempoBPM*0.9)
			assert.LessOrEqual(t, tempo, maxTempoBPM*1.1)
		}
	})
}
