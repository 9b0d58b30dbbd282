// Package tasks runs the idempotent upload-and-attach protocol and duplicate cleanup with real-time progress reporting.
//
// # Core Operations
//
// [Engine] exposes four operations over a [services.Client]:
//
//  1. [Engine.FindExisting] : Identity lookup
//     - Resolves the author's current playlist (title prefix, last by title)
//     - Matches a track whose tag list holds the identity as a whole token
//     - Optionally matches the exact title "{author}-{identity}"
//
//  2. [Engine.Upload] : Upload at most once
//     - Short-circuits when FindExisting matches
//     - Creates the track with title, description and tag list derived from the asset
//     - Recovers a 504 on create by searching the user's tracks for the title
//     - Attaches the new track to the author's playlist
//
//  3. [Engine.Attach] : Playlist maintenance
//     - Creates the author's first playlist
//     - Replaces the track list with the new id appended and duplicates removed
//     - Creates "{author}_{N+1}" when the playlist is full
//     - Logs other update failures without failing the upload
//
//  4. [Engine.Dedupe] : Duplicate cleanup
//     - Groups tracks by title, keeps the first of each group
//     - Deletes the rest on a rate limited worker pool
//     - Reports kept, deleted and failed ids per title
//
// # Progress Reporting
//
// Operations send [ProgressUpdate] values on the channel given in [EngineOpts].
// Updates use select with default to prevent blocking.
//
// # Journal and Metrics
//
// The optional [Journal] receives an event after each remote side effect.
// Journal errors are logged and ignored, and the journal is never read back:
// the remote service is the only source of truth for identity.
//
// The optional [Recorder] counts upload, attach and delete outcomes.
//
// # Concurrency
//
// Attach holds a per-author lock for the duration of the read-modify-write on
// the playlist. Separate processes attaching for the same author can still
// lose an id, since the update replaces the whole track list.
package tasks
