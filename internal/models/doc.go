// Package models defines the domain types shared by the upload and dedupe flows.
//
// The package contains two categories of types:
//
// 1. Remote DTOs: values decoded from the hosting service
//   - [Track] : an uploaded track with its free-form tag list
//   - [Playlist] : an ordered collection of track references
//
// 2. Local values
//   - [Asset] : an audio file on disk with its derived identity and author
//   - [Event] : a journal row recorded after a remote operation
//
// The title association invariant lives here: every uploaded track is titled
// "{author}-{identity}" and tagged with both identity and author as separate
// tokens. [Asset.Title] and [Asset.TagList] are the only producers of those
// strings and [Track.HasTag] is the only consumer.
package models
