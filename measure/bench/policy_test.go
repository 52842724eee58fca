package bench

import (
	"errors"
	"testing"
)

func TestPolicyValidate(t *testing.T) {
	tests := []struct {
		name    string
		policy  Policy
		wantErr bool
	}{
		{name: "default", policy: DefaultPolicy()},
		{name: "fixed", policy: FixedPolicy(1)},
		{name: "stable", policy: StablePolicy(10, 1000, 50, 0.05)},
		{name: "no max", policy: Policy{MinIterations: 1}, wantErr: true},
		{name: "min above max", policy: Policy{MinIterations: 5, MaxIterations: 4}, wantErr: true},
		{name: "zero min", policy: Policy{MaxIterations: 4}, wantErr: true},
		{name: "negative tolerance", policy: Policy{MinIterations: 1, MaxIterations: 4, Tolerance: -1}, wantErr: true},
		{name: "window too small", policy: StablePolicy(1, 10, 1, 0.1), wantErr: true},
		{name: "window above max", policy: StablePolicy(1, 10, 11, 0.1), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.policy.Validate()
			if tt.wantErr != (err != nil) {
				t.Fatalf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidPolicy) {
				t.Fatalf("error %v does not wrap ErrInvalidPolicy", err)
			}
		})
	}
}

func TestDefaultPolicyIsFixedThousand(t *testing.T) {
	p := DefaultPolicy()
	if p.MinIterations != 1000 || p.MaxIterations != 1000 || p.Stable() {
		t.Fatalf("DefaultPolicy() = %+v", p)
	}
}
