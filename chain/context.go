package chain

import "log/slog"

// Context carries the environment a module factory needs. Logger is
// optional; a nil Logger discards control-rate warnings.
type Context struct {
	SampleRate float64
	BlockSize  int
	Logger     *slog.Logger
}

var discardLogger = slog.New(slog.DiscardHandler)

func (c Context) log() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}

	return discardLogger
}
