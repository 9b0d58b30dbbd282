package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")

	// Remote service errors
	ErrTransport          = fmt.Errorf("remote request failed")
	ErrAmbiguousUpload    = fmt.Errorf("upload outcome unknown after gateway timeout")
	ErrPlaylistCapacity   = fmt.Errorf("playlist is full")
	ErrPlaylistUpdate     = fmt.Errorf("playlist update failed")
	ErrPlaylistCreate     = fmt.Errorf("playlist creation failed")
	ErrMissingTrack       = fmt.Errorf("no track returned after upload")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
