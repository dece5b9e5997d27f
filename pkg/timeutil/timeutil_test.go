package timeutil

import (
	"math/rand"
	"testing"
	"time"
)

func TestExponentialBackoffDelay(t *testing.T) {
	param := NewBackoffParam(100*time.Millisecond, 2.0, time.Second)

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{attempt: 0, want: 100 * time.Millisecond},
		{attempt: 1, want: 100 * time.Millisecond},
		{attempt: 2, want: 200 * time.Millisecond},
		{attempt: 3, want: 400 * time.Millisecond},
		{attempt: 4, want: 800 * time.Millisecond},
		{attempt: 5, want: time.Second},
		{attempt: 10, want: time.Second},
	}

	for _, tt := range tests {
		got := ExponentialBackoffDelay(tt.attempt, 0, nil, param)
		if got != tt.want {
			t.Errorf("attempt %d: got %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestExponentialBackoffDelay_JitterBounded(t *testing.T) {
	param := NewBackoffParam(100*time.Millisecond, 2.0, time.Second)
	rng := rand.New(rand.NewSource(42))
	jitter := 50 * time.Millisecond

	for i := 0; i < 100; i++ {
		got := ExponentialBackoffDelay(1, jitter, rng, param)
		if got < 100*time.Millisecond || got >= 150*time.Millisecond {
			t.Fatalf("delay %v outside [100ms, 150ms)", got)
		}
	}
}

func TestNewBackoffParam_Clamps(t *testing.T) {
	tests := []struct {
		name           string
		initial        time.Duration
		multiplier     float64
		max            time.Duration
		wantInitial    time.Duration
		wantMultiplier float64
		wantMax        time.Duration
	}{
		{
			name:    "valid curve kept",
			initial: 200 * time.Millisecond, multiplier: 2, max: 5 * time.Second,
			wantInitial: 200 * time.Millisecond, wantMultiplier: 2, wantMax: 5 * time.Second,
		},
		{
			name:    "shrinking multiplier raised to one",
			initial: time.Second, multiplier: 0.5, max: 0,
			wantInitial: time.Second, wantMultiplier: 1, wantMax: 0,
		},
		{
			name:    "max below initial raised",
			initial: time.Second, multiplier: 2, max: 100 * time.Millisecond,
			wantInitial: time.Second, wantMultiplier: 2, wantMax: time.Second,
		},
		{
			name:    "negative durations zeroed",
			initial: -time.Second, multiplier: 3, max: -time.Second,
			wantInitial: 0, wantMultiplier: 3, wantMax: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewBackoffParam(tt.initial, tt.multiplier, tt.max)
			if p.InitialDuration() != tt.wantInitial {
				t.Errorf("InitialDuration() = %v, want %v", p.InitialDuration(), tt.wantInitial)
			}
			if p.Multiplier() != tt.wantMultiplier {
				t.Errorf("Multiplier() = %v, want %v", p.Multiplier(), tt.wantMultiplier)
			}
			if p.MaxDuration() != tt.wantMax {
				t.Errorf("MaxDuration() = %v, want %v", p.MaxDuration(), tt.wantMax)
			}
		})
	}
}

func TestBackoffParam_StepUncapped(t *testing.T) {
	p := NewBackoffParam(10*time.Millisecond, 10, 0)

	if got := p.Step(3); got != time.Second {
		t.Errorf("Step(3) = %v, want 1s", got)
	}
	if got := p.Step(100); got <= 0 {
		t.Errorf("Step(100) overflowed to %v", got)
	}
}
