// Package segment locates non-silent regions of a mono signal.
//
// Frames of FrameLength samples, hopped by HopLength and centered on the hop
// position, are scored by mean power. A frame is non-silent when its power is
// within TopDB decibels of the loudest frame. Runs of non-silent frames are
// mapped back to sample offsets (frame index times hop, clipped to the signal
// length). Ranges are neither merged nor filtered by duration.
package segment

import (
	"math"
)

const (
	// DefaultTopDB is the threshold below the loudest frame, in decibels.
	DefaultTopDB       = 45.0
	DefaultFrameLength = 2048
	DefaultHopLength   = 512

	// powerFloor matches the 1e-10 amin used when converting power to dB. A
	// signal whose loudest frame does not exceed it is treated as silence.
	powerFloor = 1e-10
)

// Options tunes the split. A non-positive TopDB selects DefaultTopDB.
type Options struct {
	TopDB       float64
	FrameLength int
	HopLength   int
}

// DefaultOptions returns the standard 45 dB / 2048 / 512 configuration.
func DefaultOptions() Options {
	return Options{TopDB: DefaultTopDB, FrameLength: DefaultFrameLength, HopLength: DefaultHopLength}
}

func (o Options) withDefaults() Options {
	if o.TopDB <= 0 {
		o.TopDB = DefaultTopDB
	}
	if o.HopLength <= 0 {
		o.HopLength = DefaultHopLength
	}
	if o.FrameLength < o.HopLength {
		o.FrameLength = max(DefaultFrameLength, o.HopLength)
	}
	return o
}

// Range is a half-open span of sample indices.
type Range struct {
	Start int
	End   int
}

// Len returns the number of samples covered.
func (r Range) Len() int {
	return r.End - r.Start
}

// Split returns the ordered, non-overlapping non-silent ranges of samples.
// Empty or silent input yields no ranges.
func Split(samples []float32, opts Options) []Range {
	opts = opts.withDefaults()
	power := framePower(samples, opts.FrameLength, opts.HopLength)
	if len(power) == 0 {
		return nil
	}

	peak := 0.0
	for _, p := range power {
		peak = math.Max(peak, p)
	}
	if peak <= powerFloor {
		return nil
	}

	refDB := 10 * math.Log10(peak)
	nonSilent := make([]bool, len(power))
	for i, p := range power {
		db := 10*math.Log10(math.Max(powerFloor, p)) - refDB
		nonSilent[i] = db > -opts.TopDB
	}

	var edges []int
	if nonSilent[0] {
		edges = append(edges, 0)
	}
	for i := 1; i < len(nonSilent); i++ {
		if nonSilent[i] != nonSilent[i-1] {
			edges = append(edges, i)
		}
	}
	if nonSilent[len(nonSilent)-1] {
		edges = append(edges, len(nonSilent))
	}

	ranges := make([]Range, 0, len(edges)/2)
	for i := 0; i+1 < len(edges); i += 2 {
		start := min(edges[i]*opts.HopLength, len(samples))
		end := min(edges[i+1]*opts.HopLength, len(samples))
		if end > start {
			ranges = append(ranges, Range{Start: start, End: end})
		}
	}
	return ranges
}

// framePower returns the mean squared amplitude of each centered frame. The
// signal is zero padded by half a frame on both sides.
func framePower(samples []float32, frameLength, hopLength int) []float64 {
	n := len(samples)
	if n == 0 {
		return nil
	}
	pad := frameLength / 2
	padded := n + 2*pad
	if padded < frameLength {
		return nil
	}
	frames := 1 + (padded-frameLength)/hopLength

	// prefix[i] is the sum of squares of samples[:i]
	prefix := make([]float64, n+1)
	for i, s := range samples {
		v := float64(s)
		prefix[i+1] = prefix[i] + v*v
	}

	power := make([]float64, frames)
	for t := 0; t < frames; t++ {
		lo := t*hopLength - pad
		hi := lo + frameLength
		lo = max(lo, 0)
		hi = min(hi, n)
		if hi > lo {
			power[t] = (prefix[hi] - prefix[lo]) / float64(frameLength)
		}
	}
	return power
}

// Segment is a non-silent span together with its samples.
type Segment struct {
	Range
	Samples []float32
}

// Cut slices samples by ranges. The returned segments share memory with samples.
func Cut(samples []float32, ranges []Range) []Segment {
	segments := make([]Segment, 0, len(ranges))
	for _, r := range ranges {
		segments = append(segments, Segment{Range: r, Samples: samples[r.Start:r.End]})
	}
	return segments
}
