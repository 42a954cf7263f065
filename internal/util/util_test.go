package util

import "testing"

func TestSpeedTiersRatio(t *testing.T) {
	tiers := SpeedTiers{
		FarThreshold:    1.0,
		MediumThreshold: 0.5,
		FarRatio:        1.0,
		MediumRatio:     0.6,
		NearRatio:       0.3,
	}

	tests := []struct {
		name      string
		remaining float64
		expected  float64
	}{
		{"well past far threshold", 1.5, 1.0},
		{"just past far threshold", 1.01, 1.0},
		{"between medium and far", 0.75, 0.6},
		{"at medium threshold", 0.5, 0.3},
		{"near target", 0.2, 0.3},
		{"at target", 0.0, 0.3},
		{"negative remaining uses magnitude", -0.75, 0.6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tiers.Ratio(tt.remaining); got != tt.expected {
				t.Errorf("Ratio(%v) = %v, want %v", tt.remaining, got, tt.expected)
			}
		})
	}
}

func TestSpeedTiersRatioMonotonic(t *testing.T) {
	tiers := SpeedTiers{
		FarThreshold:    5.0,
		MediumThreshold: 2.0,
		FarRatio:        1.0,
		MediumRatio:     0.5,
		NearRatio:       0.2,
	}

	prev := 0.0
	for remaining := 0.0; remaining <= 10.0; remaining += 0.1 {
		got := tiers.Ratio(remaining)
		if got < prev {
			t.Fatalf("ratio decreased from %v to %v at remaining=%v", prev, got, remaining)
		}
		prev = got
	}
}

func TestTieredRatio(t *testing.T) {
	// Property from the design review: 0.2x far threshold is near,
	// 1.5x far threshold is far.
	far := 4.0
	if got := TieredRatio(0.2*far, far, far/2, 1.0, 0.6, 0.3); got != 0.3 {
		t.Errorf("near remaining: got %v, want 0.3", got)
	}
	if got := TieredRatio(1.5*far, far, far/2, 1.0, 0.6, 0.3); got != 1.0 {
		t.Errorf("far remaining: got %v, want 1.0", got)
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		name      string
		v, lo, hi float64
		expected  float64
	}{
		{"below range", -2.0, -1.0, 1.0, -1.0},
		{"above range", 2.0, -1.0, 1.0, 1.0},
		{"inside range", 0.25, -1.0, 1.0, 0.25},
		{"at lower bound", -1.0, -1.0, 1.0, -1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clamp(tt.v, tt.lo, tt.hi); got != tt.expected {
				t.Errorf("Clamp(%v, %v, %v) = %v, want %v", tt.v, tt.lo, tt.hi, got, tt.expected)
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	tests := []struct {
		name                      string
		current, target, maxDelta float64
		expected                  float64
	}{
		{"within limit", 0.0, 0.1, 0.2, 0.1},
		{"clamped increase", 0.0, 1.0, 0.2, 0.2},
		{"clamped decrease", 0.5, -0.5, 0.25, 0.25},
		{"zero max delta disables limiting", 0.0, 1.0, 0.0, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RateLimit(tt.current, tt.target, tt.maxDelta)
			if got != tt.expected {
				t.Errorf("RateLimit(%v, %v, %v) = %v, want %v",
					tt.current, tt.target, tt.maxDelta, got, tt.expected)
			}
		})
	}
}
