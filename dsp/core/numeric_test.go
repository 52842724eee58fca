package core

import (
	"math"
	"testing"
)

func TestLinearToDB(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{1, 0},
		{10, 20},
		{0.1, -20},
	}
	for _, tt := range tests {
		if got := LinearToDB(tt.in); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("LinearToDB(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if got := LinearToDB(0); !math.IsInf(got, -1) {
		t.Errorf("LinearToDB(0) = %v, want -Inf", got)
	}
	if got := LinearToDB(-1); !math.IsNaN(got) {
		t.Errorf("LinearToDB(-1) = %v, want NaN", got)
	}
}
