// Package pipeline turns one source audio into an aligned snippet batch.
//
// Processor splits the signal on silence, sends every segment to the ASR
// backend in waves, aligns each hypothesis against the reference transcript
// and, for stored source audio, forwards the batch to the snippet sink unless
// enough snippets already exist. Loader resolves the accepted request shapes
// into a Request.
package pipeline
