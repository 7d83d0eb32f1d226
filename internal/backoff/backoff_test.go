package backoff

import (
	"testing"
	"time"
)

func TestDelaySchedule(t *testing.T) {
	base := 500 * time.Millisecond
	max := 30 * time.Second

	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 500 * time.Millisecond},
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 8 * time.Second},
		{5, 16 * time.Second},
		{6, 30 * time.Second},
		{7, 30 * time.Second},
		{100, 30 * time.Second},
	}

	for _, tc := range cases {
		if got := Delay(tc.attempt, base, max); got != tc.want {
			t.Fatalf("Delay(%d) = %v, want %v", tc.attempt, got, tc.want)
		}
	}
}

func TestDelayDisabledBase(t *testing.T) {
	if got := Delay(5, 0, time.Minute); got != 0 {
		t.Fatalf("expected zero delay with no base, got %v", got)
	}
}

func TestDelayNegativeAttempt(t *testing.T) {
	if got := Delay(-3, time.Second, time.Minute); got != time.Second {
		t.Fatalf("negative attempt should behave like attempt 0, got %v", got)
	}
}

func TestDelayOverflowSaturates(t *testing.T) {
	if got := Delay(500, time.Second, 0); got <= 0 {
		t.Fatalf("uncapped overflow must saturate positive, got %v", got)
	}
	if got := Delay(500, time.Second, time.Hour); got != time.Hour {
		t.Fatalf("capped overflow must return max, got %v", got)
	}
}
