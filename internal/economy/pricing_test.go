package economy

import "testing"

func TestPriceAtCurve(t *testing.T) {
	cases := []struct {
		base   int64
		growth float64
		owned  int64
		want   int64
	}{
		{100, 1.15, 0, 100},
		{100, 1.15, 1, 115},
		{100, 1.15, 2, 132}, // round(132.25)
		{100, 1.15, 3, 152}, // round(152.0875)
		{50, 1.5, 0, 50},
		{50, 1.5, 1, 75},
		{50, 1.5, 2, 113}, // round(112.5) half-up
		{3, 1.0, 7, 3},
	}

	for _, tc := range cases {
		got, err := PriceAt(tc.base, tc.growth, tc.owned)
		if err != nil {
			t.Fatalf("PriceAt(%d,%v,%d) error: %v", tc.base, tc.growth, tc.owned, err)
		}
		if got != tc.want {
			t.Fatalf("PriceAt(%d,%v,%d) = %d; want %d", tc.base, tc.growth, tc.owned, got, tc.want)
		}
	}
}

func TestPriceAtZeroOwnedIsExactBase(t *testing.T) {
	// No float math may touch the n = 0 case.
	bases := []int64{1, 7, 99, 1000000007}
	for _, b := range bases {
		got, err := PriceAt(b, 1.15, 0)
		if err != nil {
			t.Fatalf("PriceAt(%d,1.15,0) error: %v", b, err)
		}
		if got != b {
			t.Fatalf("PriceAt(%d,1.15,0) = %d; want exact base", b, got)
		}
	}
}

func TestPriceAtMonotonic(t *testing.T) {
	prev := int64(0)
	for n := int64(0); n < 40; n++ {
		p, err := PriceAt(100, 1.15, n)
		if err != nil {
			t.Fatalf("PriceAt error at n=%d: %v", n, err)
		}
		if p <= prev {
			t.Fatalf("price not monotonic: price(%d)=%d <= price(%d)=%d", n, p, n-1, prev)
		}
		prev = p
	}
}

func TestPriceAtInvalidInputs(t *testing.T) {
	if _, err := PriceAt(0, 1.15, 0); err != ErrInvalidItem {
		t.Fatalf("zero base price: got %v; want ErrInvalidItem", err)
	}
	if _, err := PriceAt(-5, 1.15, 0); err != ErrInvalidItem {
		t.Fatalf("negative base price: got %v; want ErrInvalidItem", err)
	}
	if _, err := PriceAt(100, -1, 2); err != ErrInvalidItem {
		t.Fatalf("negative growth: got %v; want ErrInvalidItem", err)
	}
	if _, err := PriceAt(100, 1.15, -1); err != ErrInvalidAmount {
		t.Fatalf("negative owned: got %v; want ErrInvalidAmount", err)
	}
}

func TestPriceCurve(t *testing.T) {
	prices, err := PriceCurve(100, 1.15, 0, 3)
	if err != nil {
		t.Fatalf("PriceCurve error: %v", err)
	}
	want := []int64{100, 115, 132}
	if len(prices) != len(want) {
		t.Fatalf("PriceCurve returned %d prices; want %d", len(prices), len(want))
	}
	for i := range want {
		if prices[i] != want[i] {
			t.Fatalf("PriceCurve[%d] = %d; want %d", i, prices[i], want[i])
		}
	}
}
