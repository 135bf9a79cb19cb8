// Package chain assembles stereo effect modules into an ordered
// processing chain.
//
// A Registry maps module type names to factories; a Chain owns an
// ordered list of Module instances between a shared input and output,
// with a pre-gain stage first and a brickwall limiter last. Parameter
// writes go through clamped, string-keyed SetParam calls and are
// smoothed inside the wrapped processors, so a control goroutine can
// retune a running chain without clicks. The audio path never blocks
// on construction work: expensive rebuilds (impulse responses) happen
// off the processing thread and are swapped in atomically.
package chain
