package services

import (
	"io"
	"mime"
	"path/filepath"

	"github.com/dhowden/tag"
)

const defaultContentType = "application/octet-stream"

// DetectContentType identifies the audio container of r from its tag header,
// falling back to the filename extension. The reader is rewound before returning.
func DetectContentType(r io.ReadSeeker, filename string) string {
	_, fileType, err := tag.Identify(r)
	if _, seekErr := r.Seek(0, io.SeekStart); seekErr != nil {
		return defaultContentType
	}

	if err == nil {
		switch fileType {
		case tag.MP3:
			return "audio/mpeg"
		case tag.FLAC:
			return "audio/flac"
		case tag.OGG:
			return "audio/ogg"
		case tag.M4A, tag.M4B, tag.M4P, tag.ALAC:
			return "audio/mp4"
		}
	}

	if ct := mime.TypeByExtension(filepath.Ext(filename)); ct != "" {
		return ct
	}
	return defaultContentType
}
