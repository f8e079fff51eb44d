package collector

// cpuState caches the previous CPU tick sample so usage can be computed as a
// delta between successive collection cycles instead of blocking inside the
// collection path.
type cpuState struct {
	prevIdle  float64
	prevTotal float64
	primed    bool
}

// usage returns the CPU usage percentage between the previous sample and the
// given one, then advances the cache. The first call after process start has
// no baseline and returns 0.0 by convention. A non-advancing total counter
// also yields 0.0.
func (s *cpuState) usage(ticks CPUTicks) float64 {
	if !s.primed {
		s.prevIdle = ticks.Idle
		s.prevTotal = ticks.Total
		s.primed = true
		return 0.0
	}

	idleDelta := ticks.Idle - s.prevIdle
	totalDelta := ticks.Total - s.prevTotal
	s.prevIdle = ticks.Idle
	s.prevTotal = ticks.Total

	if totalDelta <= 0 {
		return 0.0
	}
	return round1((1.0 - idleDelta/totalDelta) * 100)
}
