package economy

import (
	"testing"

	"portfolio_economy/internal/domain"
)

func rankTable() []domain.RankThreshold {
	return []domain.RankThreshold{
		{MinXP: 0, Name: "Wanderer"},
		{MinXP: 100, Name: "Initiate"},
		{MinXP: 300, Name: "Apprentice"},
	}
}

func TestResolveRank(t *testing.T) {
	cases := []struct {
		xp   int64
		want string
	}{
		{0, "Wanderer"},
		{99, "Wanderer"},
		{100, "Initiate"},
		{299, "Initiate"},
		{300, "Apprentice"},
		{100000, "Apprentice"},
	}

	for _, tc := range cases {
		got, err := ResolveRank(rankTable(), tc.xp)
		if err != nil {
			t.Fatalf("ResolveRank(%d) error: %v", tc.xp, err)
		}
		if got.Name != tc.want {
			t.Fatalf("ResolveRank(%d) = %s; want %s", tc.xp, got.Name, tc.want)
		}
	}
}

func TestResolveRankEmptyTable(t *testing.T) {
	if _, err := ResolveRank(nil, 50); err != ErrNoRankConfigured {
		t.Fatalf("empty table: got %v; want ErrNoRankConfigured", err)
	}
}

func TestResolveRankMonotonic(t *testing.T) {
	var prev int64 = -1
	for xp := int64(0); xp <= 400; xp += 10 {
		r, err := ResolveRank(rankTable(), xp)
		if err != nil {
			t.Fatalf("ResolveRank(%d) error: %v", xp, err)
		}
		if r.MinXP < prev {
			t.Fatalf("rank regressed at xp=%d: min_xp %d < %d", xp, r.MinXP, prev)
		}
		prev = r.MinXP
	}
}

func TestNextRank(t *testing.T) {
	next := NextRank(rankTable(), 150)
	if next == nil || next.Name != "Apprentice" {
		t.Fatalf("NextRank(150) = %v; want Apprentice", next)
	}
	if NextRank(rankTable(), 300) != nil {
		t.Fatalf("NextRank at top rank should be nil")
	}
}

func TestValidateThresholds(t *testing.T) {
	if err := ValidateThresholds(rankTable()); err != nil {
		t.Fatalf("valid table rejected: %v", err)
	}
	if err := ValidateThresholds(nil); err == nil {
		t.Fatalf("empty table accepted")
	}
	if err := ValidateThresholds([]domain.RankThreshold{{MinXP: 10, Name: "x"}}); err == nil {
		t.Fatalf("table without min_xp 0 accepted")
	}
	if err := ValidateThresholds([]domain.RankThreshold{
		{MinXP: 0, Name: "a"}, {MinXP: 100, Name: "b"}, {MinXP: 100, Name: "c"},
	}); err == nil {
		t.Fatalf("duplicate thresholds accepted")
	}
}
