// Package audio computes delivery metrics for pitch recordings:
// duration, words per minute, silence ratio, and the transcript.
// Signal decoding and transcription are external collaborators behind
// narrow interfaces; the metric arithmetic lives here.
package audio

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonathan/exam-grader/internal/cache"
	"github.com/jonathan/exam-grader/internal/types"
)

// Interval is a voiced segment in seconds, produced by energy-threshold
// voice-activity segmentation.
type Interval struct {
	Start float64
	End   float64
}

// Waveform is the decoded signal summary for an audio file.
type Waveform struct {
	DurationSeconds float64
	VoicedIntervals []Interval
}

// WaveformReader decodes an audio file into duration and voiced
// intervals. Implemented by the deployment's DSP library.
type WaveformReader interface {
	Read(ctx context.Context, path string) (*Waveform, error)
}

// Transcriber produces a transcript for an audio file. Implemented by
// the external transcription oracle; calls are charged, so they go
// through the transcript cache.
type Transcriber interface {
	Transcribe(ctx context.Context, path string) (string, error)
}

// Analyzer derives AudioMetrics from a recording, caching transcripts
// by audio source identity.
type Analyzer struct {
	Waveform    WaveformReader
	Transcriber Transcriber
	Cache       *cache.TranscriptCache
}

// NewAnalyzer wires an analyzer over the given collaborators.
func NewAnalyzer(waveform WaveformReader, transcriber Transcriber, transcriptCache *cache.TranscriptCache) *Analyzer {
	return &Analyzer{Waveform: waveform, Transcriber: transcriber, Cache: transcriptCache}
}

// Analyze computes the metrics for one recording. A zero-duration
// signal yields zero WPM and zero silence ratio.
func (a *Analyzer) Analyze(ctx context.Context, path string) (*types.AudioMetrics, error) {
	wave, err := a.Waveform.Read(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio %s: %w", path, err)
	}

	transcript, err := a.transcriptFor(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to transcribe %s: %w", path, err)
	}

	metrics := ComputeMetrics(wave, transcript)
	if err := metrics.Validate(); err != nil {
		return nil, fmt.Errorf("invalid metrics for %s: %w", path, err)
	}
	return metrics, nil
}

// transcriptFor fetches the transcript through the cache when one is
// configured, otherwise directly from the transcriber.
func (a *Analyzer) transcriptFor(ctx context.Context, path string) (string, error) {
	if a.Cache == nil {
		return a.Transcriber.Transcribe(ctx, path)
	}
	sourceID := cache.SourceIdentity(path)
	return a.Cache.GetOrCompute(ctx, sourceID, func(ctx context.Context) (string, error) {
		return a.Transcriber.Transcribe(ctx, path)
	})
}

// ComputeMetrics derives the numeric metrics from a decoded waveform
// and its transcript:
//
//	wpm           = word_count / (duration / 60)
//	silence_ratio = (duration - total_voiced_time) / duration
func ComputeMetrics(wave *Waveform, transcript string) *types.AudioMetrics {
	metrics := &types.AudioMetrics{
		DurationSeconds: wave.DurationSeconds,
		Transcript:      transcript,
	}
	if wave.DurationSeconds <= 0 {
		return metrics
	}

	wordCount := len(strings.Fields(transcript))
	metrics.WordsPerMinute = float64(wordCount) / (wave.DurationSeconds / 60)

	voiced := 0.0
	for _, interval := range wave.VoicedIntervals {
		voiced += interval.End - interval.Start
	}
	ratio := (wave.DurationSeconds - voiced) / wave.DurationSeconds
	// Segmentation can slightly overshoot the measured duration.
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	metrics.SilenceRatio = ratio

	return metrics
}
