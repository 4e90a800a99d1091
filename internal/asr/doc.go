// Package asr talks to the speech recognition backend and also implements it.
//
// Client posts one WAV segment at a time to {predict_url}/asr-predict and
// reads back {"prediction": "..."}. Server is the backend side: it decodes
// the uploaded audio, resamples to the configured rate, and runs a single
// Recognizer under a mutex so only one inference is in flight.
//
// Recognizers:
//
//	command  runs asr.engine_command with a WAV path appended; stdout is the text
//	openai   calls the hosted transcription API through go-openai
package asr
