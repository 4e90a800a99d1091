// Package audio decodes, encodes, and converts the mono float signals the
// pipeline works on.
//
// WAV input is decoded in process with go-audio. Anything else (mp4, webm,
// mp3 downloads) is transcoded by ffmpeg into a mono WAV at the requested rate
// first. Segment audio is encoded back to 16-bit mono WAV in memory before it
// is posted to the ASR backend.
package audio
