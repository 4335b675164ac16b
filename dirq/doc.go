// Package dirq and its dirqerrors/dirqlog siblings implement a
// directory-based queue: a persistent, multi-producer/multi-consumer
// queue whose sole storage and coordination substrate is a
// hierarchical directory layout on a POSIX-like filesystem.
//
// Three flavors share one engine:
//
//   - TypedQueue stores schema-validated multi-field records, one
//     file per field, under a per-element directory.
//   - SimpleQueue stores a single opaque byte payload per element, one
//     file per element.
//   - NullQueue discards writes and reports itself permanently empty,
//     for dry-run configurations that want no conditional code paths.
//
// QueueSet federates several queues behind one round-robin iteration
// and count surface.
//
// Every operation that mutates shared state derives its atomicity
// from a single filesystem syscall: rename, O_EXCL file creation, or
// mkdir used as a test-and-set lock. There is no in-process
// coordination between independent Queue handles; two processes
// cooperate only through what each observes on disk.
package dirq
