// Package services defines the [Client] interface for the remote media host and implements it for SoundCloud.
//
// # Client Interface
//
// The upload and dedupe flows in package tasks depend only on [Client], so tests
// substitute an in-memory fake and the HTTP implementation stays thin.
//
// # SoundCloud Implementation
//
// [SoundCloudService] authenticates with [oauth2] using either a pre-issued
// access token or the resource owner password grant. [SoundCloudService.AuthCodeURL]
// and [SoundCloudService.Exchange] drive the browser login behind `twhispr auth`. Every request passes
// through a [rate.Limiter] and, when configured, a [RequestObserver].
//
// Listings accept both plain JSON arrays and linked-partitioning pages
// ({"collection": [...], "next_href": "..."}); next_href is followed until empty.
//
// Track uploads are multipart/form-data with the fields track[title],
// track[description], track[tag_list] and track[asset_data]. The asset part
// carries a content type from [DetectContentType].
//
// # Error Handling
//
// Non-2xx responses are returned as [*APIError], which unwraps to
// [shared.ErrTransport]. Use [IsStatus] to branch on a status code:
//   - 504 on track creation : the upload may still have been committed
//   - 422 on playlist update : the playlist may be full
//
// Other sentinels:
//   - [shared.ErrNotAuthenticated] : Authenticate() not called
//   - [shared.ErrAuthFailed] : token exchange rejected
//   - [shared.ErrMissingCredentials] : client id, secret or user credentials absent
package services
