package tasks

import "fmt"

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
}

// Operation phase enumeration
type Phase int

const (
	ResolvePlaylist Phase = iota
	UploadTrack
	RecoverUpload
	AttachTrack
	CreatePlaylist
	FetchTracks
	GroupDuplicates
	DeleteDuplicates
)

func (p Phase) String() string {
	switch p {
	case ResolvePlaylist:
		return "resolve_playlist"
	case UploadTrack:
		return "upload_track"
	case RecoverUpload:
		return "recover_upload"
	case AttachTrack:
		return "attach_track"
	case CreatePlaylist:
		return "create_playlist"
	case FetchTracks:
		return "fetch_tracks"
	case GroupDuplicates:
		return "group_duplicates"
	case DeleteDuplicates:
		return "delete_duplicates"
	default:
		return ""
	}
}

func resolvePlaylistUpdate(author string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolvePlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Resolving current playlist for %s...", author),
	}
}

func uploadTrackUpdate(title string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   UploadTrack,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Uploading %s...", title),
	}
}

func recoverUploadUpdate(title string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   RecoverUpload,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Gateway timeout, searching my tracks for %s...", title),
	}
}

func attachTrackUpdate(playlist string, size int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AttachTrack,
		Step:    size,
		Total:   PlaylistCapacity,
		Message: fmt.Sprintf("Updating %s (%d tracks)...", playlist, size),
	}
}

func createPlaylistUpdate(title string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Creating playlist %s...", title),
	}
}

func fetchTracksUpdate(scope string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchTracks,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetching tracks from %s...", scope),
	}
}

func planDuplicatesUpdate(groups, deletions int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   GroupDuplicates,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found %d duplicate titles, %d tracks to delete", groups, deletions),
	}
}

func deleteCompletedUpdate(step, total int, title string, id int64) ProgressUpdate {
	return ProgressUpdate{
		Phase:   DeleteDuplicates,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d)", step, total, title, id),
	}
}

func deleteFailedUpdate(step, total int, title string, id int64, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   DeleteDuplicates,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s (%d): %v", step, total, title, id, err),
	}
}
