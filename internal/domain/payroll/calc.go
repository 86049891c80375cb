package payroll

import "math"

// ComputeTotal is the only place a total is derived. Callers never supply it.
func ComputeTotal(in Input) (float64, error) {
	if in.Basic < 0 || in.DA < 0 || in.HRA < 0 {
		return 0, ErrNegativeAmount
	}
	return roundCents(in.Basic + in.DA + in.HRA), nil
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
