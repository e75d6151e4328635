// Package queueing provides a small M/M/c utilisation model used by the
// hysteresis controller to warn when the replenishment pipeline is running
// close to saturation.
package queueing

import "math"

// Bands are the utilisation thresholds above which the analysis reports a
// warning (Overload) or an alert (Critical).
type Bands struct {
	Overload float64
	Critical float64
}

// Analysis is the result of evaluating an M/M/c system.
type Analysis struct {
	// Rho is the server utilisation lambda / (c * mu).
	Rho float64
	// WaitProbability is the Erlang-C probability that an arriving pallet
	// request has to queue. 1 when the system is unstable.
	WaitProbability float64
	// Stable is false when rho >= 1.
	Stable bool
	// Overloaded is true when rho exceeds the overload band.
	Overloaded bool
	// CriticalLoad is true when rho exceeds the critical band.
	CriticalLoad bool
}

// Analyze evaluates an M/M/c queue with arrival rate lambda, per-server
// service rate mu and c servers. Rates must share a unit; the result is
// unit-free.
func Analyze(lambda, mu float64, c int, bands Bands) Analysis {
	if c <= 0 || mu <= 0 {
		return Analysis{Rho: math.Inf(1), WaitProbability: 1}
	}
	if lambda <= 0 {
		return Analysis{Stable: true}
	}

	rho := lambda / (float64(c) * mu)
	analysis := Analysis{
		Rho:          rho,
		Stable:       rho < 1,
		Overloaded:   bands.Overload > 0 && rho > bands.Overload,
		CriticalLoad: bands.Critical > 0 && rho > bands.Critical,
	}
	if !analysis.Stable {
		analysis.WaitProbability = 1
		return analysis
	}

	analysis.WaitProbability = erlangC(lambda/mu, c, rho)
	return analysis
}

// erlangC computes the probability of waiting for an M/M/c queue with
// offered load a = lambda/mu and utilisation rho < 1.
func erlangC(a float64, c int, rho float64) float64 {
	// Sum a^k/k! iteratively to avoid factorial overflow.
	sum := 0.0
	term := 1.0
	for k := 0; k < c; k++ {
		if k > 0 {
			term *= a / float64(k)
		}
		sum += term
	}
	top := term * a / float64(c) / (1 - rho)
	return top / (sum + top)
}
