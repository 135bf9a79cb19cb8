package spatial

// firPath is a ring-buffer FIR convolver for one ear path. The
// impulse responses here are a few hundred taps, short enough that
// direct convolution beats an FFT round trip per sample.
type firPath struct {
	ir    []float64
	hist  []float64
	write int
}

func (f *firPath) init(ir []float64) {
	if len(ir) == 0 {
		ir = []float64{1}
	}
	f.ir = ir
	f.hist = make([]float64, len(ir))
	f.write = 0
}

func (f *firPath) process(x float64) float64 {
	if len(f.ir) == 0 {
		return x
	}

	f.hist[f.write] = x

	sum := 0.0
	idx := f.write
	for i := 0; i < len(f.ir); i++ {
		sum += f.ir[i] * f.hist[idx]
		idx--
		if idx < 0 {
			idx = len(f.hist) - 1
		}
	}

	f.write++
	if f.write >= len(f.hist) {
		f.write = 0
	}

	return sum
}

func (f *firPath) reset() {
	for i := range f.hist {
		f.hist[i] = 0
	}
	f.write = 0
}
