package audioscorer

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"math"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"ai-interview-platform/backend/internal/objectstore"
)

// Audio analysis statuses. Decode failures carry detail appended to
// StatusErrorPrefix.
const (
	StatusSuccess      = "success"
	StatusFileNotFound = "file_not_found"
	StatusErrorPrefix  = "error: "
)

// confidenceBound caps the confidence heuristic. ConfidenceScore is on a
// fixed 0-10 scale; consumers wanting 0-1 divide by 10.
const confidenceBound = 10.0

// AudioScore holds the heuristic signals extracted from one recorded answer.
type AudioScore struct {
	ConfidenceScore float64 `json:"confidence_score"`
	SpeechRate      float64 `json:"speech_rate"`
	Status          string  `json:"status"`
}

// ObjectFetcher fetches a stored recording by object key.
// *objectstore.MinioClient satisfies it.
type ObjectFetcher interface {
	GetFileBytes(ctx context.Context, objectName string) ([]byte, error)
}

// Scorer extracts confidence and speech-rate heuristics from answer
// recordings held in object storage.
type Scorer struct {
	store ObjectFetcher
}

// NewScorer creates a Scorer reading recordings through the given fetcher.
func NewScorer(store ObjectFetcher) *Scorer {
	return &Scorer{store: store}
}

// Analyze scores one recording. It never returns an error: a missing object
// yields a zero score with status file_not_found, and any fetch or decode
// failure yields a zero score with the failure detail in the status.
func (s *Scorer) Analyze(ctx context.Context, objectName string) AudioScore {
	if objectName == "" {
		log.Printf("Audio analysis skipped: no recording reference")
		return AudioScore{Status: StatusFileNotFound}
	}

	data, err := s.store.GetFileBytes(ctx, objectName)
	if err != nil {
		if objectstore.IsNotFound(err) {
			log.Printf("Audio file not found: %s", objectName)
			return AudioScore{Status: StatusFileNotFound}
		}
		log.Printf("Error fetching audio %s: %v", objectName, err)
		return AudioScore{Status: StatusErrorPrefix + err.Error()}
	}

	samples, sampleRate, err := decodeWAV(data)
	if err != nil {
		log.Printf("Error analyzing audio %s: %v", objectName, err)
		return AudioScore{Status: StatusErrorPrefix + err.Error()}
	}

	tempo := estimateTempo(samples, sampleRate)
	energy := meanFrameRMS(samples)

	// Simple heuristic for confidence
	confidence := math.Min(confidenceBound, energy*20+tempo/30)

	return AudioScore{
		ConfidenceScore: round2(confidence),
		SpeechRate:      round2(tempo),
		Status:          StatusSuccess,
	}
}

// decodeWAV decodes WAV bytes to mono samples normalized to [-1, 1].
func decodeWAV(data []byte) ([]float64, int, error) {
	decoder := wav.NewDecoder(bytes.NewReader(data))
	if !decoder.IsValidFile() {
		return nil, 0, fmt.Errorf("not a valid WAV file")
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to decode PCM data: %w", err)
	}
	if buf == nil || len(buf.Data) == 0 {
		return nil, 0, fmt.Errorf("WAV file contains no samples")
	}

	bitDepth := int(decoder.BitDepth)
	if bitDepth == 0 {
		bitDepth = 16
	}
	return monoSamples(buf, bitDepth), buf.Format.SampleRate, nil
}

// monoSamples mixes interleaved channels down to mono and normalizes by the
// full-scale amplitude for the bit depth.
func monoSamples(buf *audio.IntBuffer, bitDepth int) []float64 {
	channels := buf.Format.NumChannels
	if channels < 1 {
		channels = 1
	}
	fullScale := float64(int(1) << (bitDepth - 1))

	frames := len(buf.Data) / channels
	samples := make([]float64, 0, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += float64(buf.Data[i*channels+c])
		}
		samples = append(samples, sum/float64(channels)/fullScale)
	}
	return samples
}

const (
	analysisFrameSize = 2048
	analysisHopSize   = 512
	minTempoBPM       = 30.0
	maxTempoBPM       = 300.0
)

// meanFrameRMS is the mean of per-frame root-mean-square amplitudes, the
// energy proxy behind the confidence heuristic.
func meanFrameRMS(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	if len(samples) < analysisFrameSize {
		return frameRMS(samples)
	}

	var total float64
	var frames int
	for start := 0; start+analysisFrameSize <= len(samples); start += analysisHopSize {
		total += frameRMS(samples[start : start+analysisFrameSize])
		frames++
	}
	return total / float64(frames)
}

func frameRMS(frame []float64) float64 {
	var sumSq float64
	for _, v := range frame {
		sumSq += v * v
	}
	return math.Sqrt(sumSq / float64(len(frame)))
}

// estimateTempo estimates a beat tempo in BPM from the onset-energy
// envelope via autocorrelation over the plausible tempo range. It serves as
// a speech-rate proxy; signals too short or too flat to correlate yield 0.
func estimateTempo(samples []float64, sampleRate int) float64 {
	if sampleRate <= 0 || len(samples) < analysisHopSize*4 {
		return 0
	}

	// Energy envelope at hop resolution, then positive first differences
	// as onset strength.
	var envelope []float64
	for start := 0; start+analysisHopSize <= len(samples); start += analysisHopSize {
		envelope = append(envelope, frameRMS(samples[start:start+analysisHopSize]))
	}

	onsets := make([]float64, len(envelope))
	for i := 1; i < len(envelope); i++ {
		if diff := envelope[i] - envelope[i-1]; diff > 0 {
			onsets[i] = diff
		}
	}

	envelopeRate := float64(sampleRate) / float64(analysisHopSize)
	minLag := int(envelopeRate * 60.0 / maxTempoBPM)
	maxLag := int(envelopeRate * 60.0 / minTempoBPM)
	if minLag < 1 {
		minLag = 1
	}
	if maxLag >= len(onsets) {
		maxLag = len(onsets) - 1
	}
	if maxLag < minLag {
		return 0
	}

	bestLag, bestCorr := 0, 0.0
	for lag := minLag; lag <= maxLag; lag++ {
		var corr float64
		for i := lag; i < len(onsets); i++ {
			corr += onsets[i] * onsets[i-lag]
		}
		if corr > bestCorr {
			bestCorr = corr
			bestLag = lag
		}
	}
	if bestLag == 0 || bestCorr == 0 {
		return 0
	}

	return 60.0 * envelopeRate / float64(bestLag)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
