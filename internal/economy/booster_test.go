package economy

import (
	"testing"
	"time"

	"portfolio_economy/internal/domain"
)

func TestEffectiveMultiplierExpiry(t *testing.T) {
	t0 := time.Unix(0, 0)
	boosters := []domain.Booster{
		{EffectID: "double_rewards", Multiplier: 2, ExpiresAt: t0.Add(3600 * time.Second)},
	}

	if got := EffectiveMultiplier(boosters, t0.Add(1800*time.Second)); got != 2 {
		t.Fatalf("multiplier at t=1800 = %v; want 2", got)
	}
	// expiry is inclusive: inert from exactly expires_at
	if got := EffectiveMultiplier(boosters, t0.Add(3600*time.Second)); got != 1 {
		t.Fatalf("multiplier at t=3600 = %v; want 1", got)
	}
	if got := EffectiveMultiplier(boosters, t0.Add(3601*time.Second)); got != 1 {
		t.Fatalf("multiplier at t=3601 = %v; want 1", got)
	}
}

func TestEffectiveMultiplierCombinesMultiplicatively(t *testing.T) {
	now := time.Now()
	boosters := []domain.Booster{
		{EffectID: "a", Multiplier: 2, ExpiresAt: now.Add(time.Hour)},
		{EffectID: "b", Multiplier: 1.5, ExpiresAt: now.Add(time.Minute)},
		{EffectID: "c", Multiplier: 10, ExpiresAt: now.Add(-time.Second)}, // expired
	}
	if got := EffectiveMultiplier(boosters, now); got != 3 {
		t.Fatalf("combined multiplier = %v; want 3", got)
	}
}

func TestEffectiveMultiplierDefault(t *testing.T) {
	if got := EffectiveMultiplier(nil, time.Now()); got != 1 {
		t.Fatalf("no boosters: multiplier = %v; want 1", got)
	}
}

func TestExtendExpiry(t *testing.T) {
	now := time.Unix(1000, 0)

	// fresh effect: existing zero time, starts from now
	got := ExtendExpiry(time.Time{}, now, time.Hour)
	if !got.Equal(now.Add(time.Hour)) {
		t.Fatalf("fresh expiry = %v; want %v", got, now.Add(time.Hour))
	}

	// still active: remaining time is kept
	existing := now.Add(30 * time.Minute)
	got = ExtendExpiry(existing, now, time.Hour)
	if !got.Equal(existing.Add(time.Hour)) {
		t.Fatalf("extended expiry = %v; want %v", got, existing.Add(time.Hour))
	}

	// already expired: restarts from now
	got = ExtendExpiry(now.Add(-time.Minute), now, time.Hour)
	if !got.Equal(now.Add(time.Hour)) {
		t.Fatalf("restarted expiry = %v; want %v", got, now.Add(time.Hour))
	}
}

func TestActiveBoosters(t *testing.T) {
	now := time.Now()
	boosters := []domain.Booster{
		{EffectID: "live", Multiplier: 2, ExpiresAt: now.Add(time.Minute)},
		{EffectID: "dead", Multiplier: 3, ExpiresAt: now.Add(-time.Minute)},
	}
	active := ActiveBoosters(boosters, now)
	if len(active) != 1 || active[0].EffectID != "live" {
		t.Fatalf("ActiveBoosters = %v; want only live", active)
	}
}

func TestBoostedAmount(t *testing.T) {
	cases := []struct {
		base int64
		mult float64
		want int64
	}{
		{100, 1, 100},
		{100, 2, 200},
		{25, 1.5, 38}, // round(37.5) half-up
		{0, 2, 0},
	}
	for _, tc := range cases {
		if got := BoostedAmount(tc.base, tc.mult); got != tc.want {
			t.Fatalf("BoostedAmount(%d,%v) = %d; want %d", tc.base, tc.mult, got, tc.want)
		}
	}
}
