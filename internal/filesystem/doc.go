// Package filesystem provides sandboxed file operations for managed server
// instances.
//
// Each server instance is confined to a private directory tree. The package
// is organized into specialized modules:
//   - paths: sandbox-anchored path resolution and containment checks
//   - files: single-file primitives (read, write, stat, delete, copy)
//   - mover: batch move with bounded concurrency
//   - archive: tar.gz packing and unpacking, sandbox-checked
//   - list: one-level directory listing with parallel stat + MIME detection
//   - usage: recursive disk accounting
//   - watcher: configuration file reconciliation against external edits
//
// All operations:
//   - Resolve caller-supplied paths under the instance root before any I/O
//   - Surface the first fatal error; documented degradations never abort
//   - Leave partially-applied batches in place (no rollback)
//
// The package is a library consumed by the daemon's control-plane API; it
// carries no network or CLI surface of its own.
package filesystem
