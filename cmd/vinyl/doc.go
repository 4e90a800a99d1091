// Command vinyl runs the transcription services and offers operator tools.
//
// `vinyl serve` starts the orchestration service (queue intake, worker, and
// the snippet sink), `vinyl asr serve` starts the ASR backend, and the
// remaining subcommands inspect the queue and document store or run the
// segmenter and aligner against local input.
package main
