// Package snippets owns the snippet batch produced for a source audio.
//
// Client is the orchestration side: it posts a finished batch to the
// configured sink. Service is the sink itself plus the training-data
// helpers: Create stores a batch on its source audio, Slice exports one
// snippet as a WAV and a BOM-prefixed transcript under
// {training_data_prefix}/{speakerId}/{sourceAudioId}/, and ClearBinary
// removes everything exported for a source audio.
package snippets
