package payroll

import (
	"errors"
	"testing"
)

func TestComputeTotal(t *testing.T) {
	cases := []struct {
		name string
		in   Input
		want float64
		err  error
	}{
		{"sum", Input{Basic: 30000, DA: 12000, HRA: 6000}, 48000, nil},
		{"cents", Input{Basic: 0.1, DA: 0.2, HRA: 0}, 0.3, nil},
		{"zero", Input{}, 0, nil},
		{"negative", Input{Basic: 100, DA: -1}, 0, ErrNegativeAmount},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ComputeTotal(tc.in)
			if !errors.Is(err, tc.err) {
				t.Fatalf("expected error %v, got %v", tc.err, err)
			}
			if got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestAnnual(t *testing.T) {
	record := Record{Total: 48000.25}
	if got := record.Annual(); got != 576003 {
		t.Fatalf("expected 576003, got %v", got)
	}
}
