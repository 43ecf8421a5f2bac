package dr

import (
	"fmt"
	"strings"
	"time"
)

// Backup ids are the UTC timestamp in ISO-8601 (millisecond precision) with
// the colon and period characters replaced by dashes, so ids are path-safe
// and lexical order equals chronological order. Two backups inside the same
// millisecond collide; that window is accepted.
const isoMillis = "2006-01-02T15:04:05.000Z"

// TimestampID derives a backup id from t, e.g. "2026-08-27T10-30-00-000Z".
func TimestampID(t time.Time) string {
	s := t.UTC().Format(isoMillis)
	s = strings.ReplaceAll(s, ":", "-")
	return strings.ReplaceAll(s, ".", "-")
}

// TimestampFromID reverses the id transform. Used as the fallback when a
// backup has no readable manifest.
func TimestampFromID(id string) (time.Time, error) {
	// Undo the character substitution at the fixed offsets of the layout:
	// 2006-01-02T15-04-05-000Z
	//            ^13^16  ^19
	if len(id) != len(isoMillis) {
		return time.Time{}, fmt.Errorf("id %q is not a timestamp id", id)
	}
	iso := id[:13] + ":" + id[14:16] + ":" + id[17:19] + "." + id[20:]
	t, err := time.Parse(isoMillis, iso)
	if err != nil {
		return time.Time{}, fmt.Errorf("id %q is not a timestamp id: %w", id, err)
	}
	return t, nil
}
