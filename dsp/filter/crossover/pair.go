package crossover

import "fmt"

// Pair couples the two split frequencies of a three-band network.
//
// The mid band's lower edge is always the low band's cutoff and its
// upper edge the high band's cutoff, so the two values form a single
// coupled parameter rather than independent settings. The ordering
// invariant LowHz < HighHz is validated at construction.
type Pair struct {
	LowHz  float64
	HighHz float64
}

// NewPair validates and returns a crossover pair.
func NewPair(lowHz, highHz float64) (Pair, error) {
	p := Pair{LowHz: lowHz, HighHz: highHz}
	if err := p.Validate(); err != nil {
		return Pair{}, err
	}
	return p, nil
}

// Validate checks the ordering invariant.
func (p Pair) Validate() error {
	if p.LowHz <= 0 {
		return fmt.Errorf("crossover: low split must be positive, got %v Hz", p.LowHz)
	}
	if p.HighHz <= p.LowHz {
		return fmt.Errorf("crossover: splits must satisfy low < high, got %v >= %v Hz", p.LowHz, p.HighHz)
	}
	return nil
}

// ThreeBand splits a signal into low, mid and high bands using two
// cascaded Linkwitz-Riley crossovers driven by a coupled Pair.
//
// The first stage splits at Pair.LowHz; its highpass output feeds the
// second stage splitting at Pair.HighHz. Retuning goes through SetPair
// so the two splits can never drift out of order.
type ThreeBand struct {
	low   *Crossover
	high  *Crossover
	pair  Pair
	order int
	sr    float64
}

// NewThreeBand creates a three-band crossover network. The order must
// be a positive even integer and applies to both split points.
func NewThreeBand(pair Pair, order int, sampleRate float64) (*ThreeBand, error) {
	if err := pair.Validate(); err != nil {
		return nil, err
	}

	low, err := New(pair.LowHz, order, sampleRate)
	if err != nil {
		return nil, fmt.Errorf("crossover: low split: %w", err)
	}
	high, err := New(pair.HighHz, order, sampleRate)
	if err != nil {
		return nil, fmt.Errorf("crossover: high split: %w", err)
	}

	return &ThreeBand{
		low:   low,
		high:  high,
		pair:  pair,
		order: order,
		sr:    sampleRate,
	}, nil
}

// Pair returns the current coupled split frequencies.
func (t *ThreeBand) Pair() Pair { return t.pair }

// Order returns the Linkwitz-Riley order of both stages.
func (t *ThreeBand) Order() int { return t.order }

// SetPair retunes both split points atomically. On validation or design
// failure the previous tuning is kept and an error returned. Filter
// state is reset because a retuned network's history is meaningless.
func (t *ThreeBand) SetPair(pair Pair) error {
	if err := pair.Validate(); err != nil {
		return err
	}

	low, err := New(pair.LowHz, t.order, t.sr)
	if err != nil {
		return fmt.Errorf("crossover: low split: %w", err)
	}
	high, err := New(pair.HighHz, t.order, t.sr)
	if err != nil {
		return fmt.Errorf("crossover: high split: %w", err)
	}

	t.low = low
	t.high = high
	t.pair = pair
	return nil
}

// ProcessSample splits one input sample into its three band outputs.
// The bands sum to an allpass-filtered version of the input.
func (t *ThreeBand) ProcessSample(x float64) (lo, mid, hi float64) {
	lo, rest := t.low.ProcessSample(x)
	mid, hi = t.high.ProcessSample(rest)
	return lo, mid, hi
}

// ProcessBlock splits a block of input into three band blocks. All four
// slices must have the same length; input may alias none of the outputs.
func (t *ThreeBand) ProcessBlock(input, lo, mid, hi []float64) {
	n := len(input)
	if n == 0 {
		return
	}
	// mid doubles as the stage-one highpass buffer before the second
	// stage splits it in place.
	t.low.ProcessBlock(input, lo, mid)
	t.high.ProcessBlock(mid, mid, hi)
}

// Reset clears the filter state of both stages.
func (t *ThreeBand) Reset() {
	t.low.Reset()
	t.high.Reset()
}
