package monitor

// MovingAverage smooths values with a trailing window over the valid entries.
// Nil or NaN entries stay nil and do not contribute. window <= 1 returns a copy.
func MovingAverage(values []*float64, window int) []*float64 {
	out := make([]*float64, len(values))
	if window <= 1 {
		copy(out, values)
		return out
	}

	buf := make([]float64, 0, window)
	sum := 0.0
	for i, v := range values {
		if !valid(v) {
			continue
		}
		buf = append(buf, *v)
		sum += *v
		if len(buf) > window {
			sum -= buf[0]
			buf = buf[1:]
		}
		avg := sum / float64(len(buf))
		out[i] = &avg
	}
	return out
}
