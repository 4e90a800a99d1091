package audio

import (
	"encoding/binary"
	"math"
)

// Float32ToPCM16 converts [-1, 1] samples to 16-bit integer values, clipping
// anything out of range.
func Float32ToPCM16(samples []float32) []int {
	out := make([]int, len(samples))
	for i, s := range samples {
		v := math.Max(-1, math.Min(1, float64(s)))
		out[i] = int(math.Round(v * math.MaxInt16))
	}
	return out
}

// BytesToFloat32 interprets little-endian signed 16-bit PCM as samples. A
// trailing odd byte is ignored.
func BytesToFloat32(pcm []byte) []float32 {
	out := make([]float32, len(pcm)/2)
	for i := range out {
		v := int16(binary.LittleEndian.Uint16(pcm[2*i:]))
		out[i] = float32(v) / 32768
	}
	return out
}

// Resample converts a signal to another rate by linear interpolation.
func Resample(sig Signal, rate int) Signal {
	if rate <= 0 || sig.SampleRate <= 0 || sig.SampleRate == rate {
		return sig
	}
	if len(sig.Samples) == 0 {
		return Signal{SampleRate: rate}
	}
	ratio := float64(sig.SampleRate) / float64(rate)
	n := int(math.Round(float64(len(sig.Samples)) / ratio))
	out := make([]float32, n)
	last := len(sig.Samples) - 1
	for i := range out {
		pos := float64(i) * ratio
		lo := int(pos)
		if lo >= last {
			out[i] = sig.Samples[last]
			continue
		}
		frac := float32(pos - float64(lo))
		out[i] = sig.Samples[lo]*(1-frac) + sig.Samples[lo+1]*frac
	}
	return Signal{Samples: out, SampleRate: rate}
}
