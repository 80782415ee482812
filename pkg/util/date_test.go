package util

import (
	"strconv"
	"testing"
	"time"
)

func TestParseTimeRFC3339(t *testing.T) {
	s := "2024-10-10T10:10:10Z"
	got, ok := ParseTime(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Format(time.RFC3339) != s {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Unix() != ts {
		t.Fatalf("unexpected unix %v", got.Unix())
	}
}

func TestParseTimeDefault(t *testing.T) {
	def := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)
	got := ParseTimeDefault("", def)
	if !got.Equal(def) {
		t.Fatalf("expected default")
	}
}

func TestDayKey(t *testing.T) {
	ts := time.Date(2026, 3, 14, 23, 59, 0, 0, time.UTC)
	if got := DayKey(ts); got != "2026-03-14" {
		t.Fatalf("unexpected day key %s", got)
	}
}

func TestWeekKeyCrossesYear(t *testing.T) {
	// 2026-01-01 belongs to ISO week 1 of 2026.
	ts := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if got := WeekKey(ts); got != "2026-W01" {
		t.Fatalf("unexpected week key %s", got)
	}
	// 2027-01-01 is a Friday in ISO week 53 of 2026.
	ts = time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)
	if got := WeekKey(ts); got != "2026-W53" {
		t.Fatalf("unexpected week key %s", got)
	}
}

func TestSameUTCDay(t *testing.T) {
	a := time.Date(2026, 3, 14, 0, 1, 0, 0, time.UTC)
	b := time.Date(2026, 3, 14, 23, 58, 0, 0, time.UTC)
	if !SameUTCDay(a, b) {
		t.Fatalf("expected same day")
	}
	if SameUTCDay(a, b.Add(3*time.Minute)) {
		t.Fatalf("expected different day")
	}
}
