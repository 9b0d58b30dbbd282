// package formatter renders dedupe reports, journal history and playlist listings as text, JSON or CSV
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/twhispr/internal/models"
	"github.com/desertthunder/twhispr/internal/shared"
	"github.com/desertthunder/twhispr/internal/tasks"
)

// Output formats accepted by [WriteReport].
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// Formats lists the supported output formats.
var Formats = []string{FormatText, FormatJSON, FormatCSV}

// ReportToText renders a dedupe report for people. Colors are skipped when plain is set.
func ReportToText(report *tasks.DedupeReport, plain bool) []byte {
	var buf bytes.Buffer

	header := "Duplicate report"
	if report.DryRun {
		header += " (dry run)"
	}
	buf.WriteString(paint(styles.title, header, plain) + "\n")
	fmt.Fprintf(&buf, "Tracks: %d\n", report.Total)
	fmt.Fprintf(&buf, "Unique titles: %d\n", report.Unique)
	fmt.Fprintf(&buf, "Duplicate titles: %d\n", len(report.Groups))

	if len(report.Groups) == 0 {
		buf.WriteString(paint(styles.ok, "No duplicates found", plain) + "\n")
		return buf.Bytes()
	}

	verb := "deleted"
	if report.DryRun {
		verb = "would delete"
	}

	for _, g := range report.Groups {
		fmt.Fprintf(&buf, "\n%s\n", paint(styles.warn, g.Title, plain))
		fmt.Fprintf(&buf, "  kept: %d\n", g.Kept)
		if len(g.Deleted) > 0 {
			fmt.Fprintf(&buf, "  %s: %s\n", verb, joinIDs(g.Deleted))
		}
		for _, f := range g.Failed {
			fmt.Fprintf(&buf, "  %s %d: %s\n", paint(styles.err, "failed", plain), f.TrackID, f.Error)
		}
	}

	summary := fmt.Sprintf("\n%d %s, %d failed\n", report.DeletedCount(), verb, report.FailedCount())
	buf.WriteString(paint(styles.muted, summary, plain))
	return buf.Bytes()
}

// ReportToJSON renders a dedupe report as indented JSON.
func ReportToJSON(report *tasks.DedupeReport) ([]byte, error) {
	return shared.MarshalJSON(report, true)
}

// ReportToCSV renders one row per track in a duplicate group with columns: title, track_id, action, error
func ReportToCSV(report *tasks.DedupeReport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"title", "track_id", "action", "error"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	deleted := "deleted"
	if report.DryRun {
		deleted = "planned"
	}

	for _, g := range report.Groups {
		records := [][]string{{g.Title, strconv.FormatInt(g.Kept, 10), "kept", ""}}
		for _, id := range g.Deleted {
			records = append(records, []string{g.Title, strconv.FormatInt(id, 10), deleted, ""})
		}
		for _, f := range g.Failed {
			records = append(records, []string{g.Title, strconv.FormatInt(f.TrackID, 10), "failed", f.Error})
		}
		if err := writer.WriteAll(records); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// WriteReport writes report to w in the named format.
func WriteReport(w io.Writer, report *tasks.DedupeReport, format string, plain bool) error {
	var (
		data []byte
		err  error
	)

	switch format {
	case "", FormatText:
		data = ReportToText(report, plain)
	case FormatJSON:
		data, err = ReportToJSON(report)
	case FormatCSV:
		data, err = ReportToCSV(report)
	default:
		return fmt.Errorf("%w: format must be one of %s, got %q", shared.ErrInvalidFlag, strings.Join(Formats, ", "), format)
	}
	if err != nil {
		return err
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// HistoryToText renders journal events as aligned rows, most recent first.
func HistoryToText(events []models.Event, plain bool) []byte {
	var buf bytes.Buffer

	if len(events) == 0 {
		buf.WriteString(paint(styles.muted, "No journal entries", plain) + "\n")
		return buf.Bytes()
	}

	for _, e := range events {
		kind := fmt.Sprintf("%-18s", e.Kind)
		switch e.Kind {
		case models.EventAttachFailed, models.EventDeleteFailed:
			kind = paint(styles.err, kind, plain)
		case models.EventUploaded, models.EventRecovered, models.EventPlaylistCreated:
			kind = paint(styles.ok, kind, plain)
		}

		fields := []string{e.CreatedAt.Local().Format(time.DateTime), kind}
		if e.Author != "" {
			fields = append(fields, "author="+e.Author)
		}
		if e.Identity != "" {
			fields = append(fields, "identity="+e.Identity)
		}
		if e.TrackID != 0 {
			fields = append(fields, "track="+strconv.FormatInt(e.TrackID, 10))
		}
		if e.Playlist != "" {
			fields = append(fields, fmt.Sprintf("playlist=%q", e.Playlist))
		}
		if e.Detail != "" {
			fields = append(fields, paint(styles.muted, e.Detail, plain))
		}
		buf.WriteString(strings.Join(fields, " ") + "\n")
	}

	return buf.Bytes()
}

// HistoryToJSON renders journal events as indented JSON.
func HistoryToJSON(events []models.Event) ([]byte, error) {
	return shared.MarshalJSON(events, true)
}

// PlaylistsToText lists an author's playlists in title order and marks the current one.
func PlaylistsToText(author string, playlists []models.Playlist, plain bool) []byte {
	var buf bytes.Buffer

	if len(playlists) == 0 {
		fmt.Fprintf(&buf, "%s\n", paint(styles.muted, "No playlists for "+author, plain))
		return buf.Bytes()
	}

	buf.WriteString(paint(styles.title, "Playlists for "+author, plain) + "\n")
	for i, p := range playlists {
		marker := "  "
		if i == len(playlists)-1 {
			marker = paint(styles.ok, "* ", plain)
		}
		fmt.Fprintf(&buf, "%s%s (%d tracks) %s\n", marker, p.Title, p.Size(), p.URI)
	}

	return buf.Bytes()
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ", ")
}
