// Package docstore keeps the annotation documents (source audios, speakers and
// their snippets) in SQLite.
//
// Source audios reference an object in blob storage by storage_ref_path. The
// snippet list of a source audio is replaced wholesale whenever the pipeline
// reports a new set of predictions; editors then refine individual snippets.
package docstore
