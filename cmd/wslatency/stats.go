package main

import (
	"fmt"
	"slices"
	"time"
)

type millis struct {
	v  float64
	ok bool
}

func (m millis) String() string {
	if !m.ok {
		return "n/a"
	}
	return fmt.Sprintf("%.2fms", m.v)
}

type summary struct {
	min, avg, p50, p95, p99, max millis
}

func summarize(samples []time.Duration) summary {
	if len(samples) == 0 {
		return summary{}
	}

	sorted := make([]float64, len(samples))
	var total float64
	for i, d := range samples {
		ms := float64(d) / float64(time.Millisecond)
		sorted[i] = ms
		total += ms
	}
	slices.Sort(sorted)

	return summary{
		min: millis{sorted[0], true},
		avg: millis{total / float64(len(sorted)), true},
		p50: millis{quantile(sorted, 0.50), true},
		p95: millis{quantile(sorted, 0.95), true},
		p99: millis{quantile(sorted, 0.99), true},
		max: millis{sorted[len(sorted)-1], true},
	}
}

// quantile interpolates linearly between the closest ranks of sorted,
// which must be non-empty.
func quantile(sorted []float64, q float64) float64 {
	pos := float64(len(sorted)-1) * q
	base := int(pos)
	if base+1 >= len(sorted) {
		return sorted[base]
	}
	rest := pos - float64(base)
	return sorted[base] + rest*(sorted[base+1]-sorted[base])
}
