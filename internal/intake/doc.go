// Package intake registers source audio and queues it for processing.
//
// Push resolves a source audio (downloading it from a video URL when no id
// is given) and enqueues a task whose payload names the stored audio and its
// transcript. CreateSourceAudio registers an already uploaded object and
// pushes it immediately.
package intake
