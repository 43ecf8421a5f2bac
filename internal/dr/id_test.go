package dr_test

import (
	"testing"
	"time"

	"dr-go/internal/dr"
)

func TestTimestampID(t *testing.T) {
	t.Run("replaces colons and periods with dashes", func(t *testing.T) {
		ts := time.Date(2026, 8, 27, 10, 30, 0, 123_000_000, time.UTC)
		got := dr.TimestampID(ts)
		want := "2026-08-27T10-30-00-123Z"
		if got != want {
			t.Errorf("TimestampID() = %q, want %q", got, want)
		}
	})

	t.Run("normalizes to UTC", func(t *testing.T) {
		loc := time.FixedZone("plus2", 2*60*60)
		ts := time.Date(2026, 8, 27, 12, 30, 0, 0, loc)
		got := dr.TimestampID(ts)
		want := "2026-08-27T10-30-00-000Z"
		if got != want {
			t.Errorf("TimestampID() = %q, want %q", got, want)
		}
	})

	t.Run("lexical order matches chronological order", func(t *testing.T) {
		earlier := dr.TimestampID(time.Date(2026, 8, 27, 9, 59, 59, 999_000_000, time.UTC))
		later := dr.TimestampID(time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC))
		if !(earlier < later) {
			t.Errorf("expected %q < %q", earlier, later)
		}
	})
}

func TestTimestampFromID(t *testing.T) {
	t.Run("round trips through TimestampID", func(t *testing.T) {
		want := time.Date(2026, 8, 27, 10, 30, 0, 123_000_000, time.UTC)
		got, err := dr.TimestampFromID(dr.TimestampID(want))
		if err != nil {
			t.Fatalf("TimestampFromID() error = %v", err)
		}
		if !got.Equal(want) {
			t.Errorf("TimestampFromID() = %v, want %v", got, want)
		}
	})

	t.Run("rejects ids with the wrong length", func(t *testing.T) {
		if _, err := dr.TimestampFromID("not-a-timestamp"); err == nil {
			t.Error("TimestampFromID() expected error, got nil")
		}
	})

	t.Run("rejects well-sized garbage", func(t *testing.T) {
		if _, err := dr.TimestampFromID("aaaa-bb-ccTdd-ee-ff-gggZ"); err == nil {
			t.Error("TimestampFromID() expected error, got nil")
		}
	})
}
