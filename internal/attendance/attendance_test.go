package attendance_test

import (
	"context"
	"testing"
	"time"

	"github.com/mindprep/mindprep/internal/attendance"
	"github.com/mindprep/mindprep/internal/kv"
)

func TestCalendar_Toggle(t *testing.T) {
	cal := attendance.NewCalendar(kv.NewMemoryStore())
	ctx := context.Background()

	present, err := cal.Toggle(ctx, "2026-08-28")
	if err != nil {
		t.Fatalf("Toggle() error = %v", err)
	}
	if !present {
		t.Error("Toggle() = false on first toggle, want true")
	}

	got, err := cal.Present(ctx, "2026-08-28")
	if err != nil {
		t.Fatalf("Present() error = %v", err)
	}
	if !got {
		t.Error("Present() = false after marking, want true")
	}

	present, err = cal.Toggle(ctx, "2026-08-28")
	if err != nil {
		t.Fatalf("Toggle() error = %v", err)
	}
	if present {
		t.Error("Toggle() = true on second toggle, want false")
	}
}

func TestCalendar_RejectsBadDate(t *testing.T) {
	cal := attendance.NewCalendar(kv.NewMemoryStore())

	if _, err := cal.Toggle(context.Background(), "28/08/2026"); err == nil {
		t.Error("Toggle() should reject a non-ISO date")
	}
}

func TestCalendar_Month(t *testing.T) {
	store := kv.NewMemoryStore()
	cal := attendance.NewCalendar(store)
	ctx := context.Background()

	for _, date := range []string{"2026-08-03", "2026-08-01", "2026-07-31", "2026-08-15"} {
		if _, err := cal.Toggle(ctx, date); err != nil {
			t.Fatalf("Toggle(%s) error = %v", date, err)
		}
	}
	// Unmark one again; it must not appear.
	cal.Toggle(ctx, "2026-08-15")

	days, err := cal.Month(ctx, 2026, time.August)
	if err != nil {
		t.Fatalf("Month() error = %v", err)
	}

	want := []string{"2026-08-01", "2026-08-03"}
	if len(days) != len(want) {
		t.Fatalf("Month() = %v, want %v", days, want)
	}
	for i := range want {
		if days[i] != want[i] {
			t.Errorf("Month()[%d] = %q, want %q", i, days[i], want[i])
		}
	}
}

func TestCalendar_PersistsAcrossInstances(t *testing.T) {
	store := kv.NewMemoryStore()
	ctx := context.Background()

	attendance.NewCalendar(store).Toggle(ctx, "2026-08-28")

	got, err := attendance.NewCalendar(store).Present(ctx, "2026-08-28")
	if err != nil {
		t.Fatalf("Present() error = %v", err)
	}
	if !got {
		t.Error("Present() = false from a fresh calendar, want true")
	}
}
