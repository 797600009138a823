package client

import "time"

// minJitterSpread is the smallest randomized interval width used between
// sequential batch items.
const minJitterSpread = 100 * time.Millisecond

// DelayPolicy paces sequential batch operations. Min == Max is a fixed
// delay; Min < Max draws uniformly from the interval.
type DelayPolicy struct {
	Min time.Duration
	Max time.Duration
}

// Interval returns the effective closed interval. A randomized interval
// narrower than the minimum spread is corrected to [Max, Max+spread] so
// the jitter stays meaningful.
func (p DelayPolicy) Interval() (low, high time.Duration) {
	if p.Min == p.Max {
		return p.Min, p.Max
	}
	if p.Max-p.Min < minJitterSpread {
		return p.Max, p.Max + minJitterSpread
	}
	return p.Min, p.Max
}

// delay draws the next inter-item delay using the given uniform source.
func (p DelayPolicy) delay(intn func(n int64) int64) time.Duration {
	low, high := p.Interval()
	if high <= low {
		return low
	}
	return low + time.Duration(intn(int64(high-low+1)))
}
