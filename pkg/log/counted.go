package log

import "sync/atomic"

// Counted rate-limits a recurring message: the first n occurrences log at
// info level, everything after at debug level. Counters may be shared
// process-wide; the decrement is atomic only to keep the race detector
// quiet — losing a tick would merely slow the decay.
type Counted struct {
	remaining atomic.Int64
}

// NewCounted returns a counter that allows n info-level occurrences.
func NewCounted(n int64) *Counted {
	c := &Counted{}
	c.remaining.Store(n)
	return c
}

// Log emits msg through l at info level while the counter lasts, then at
// debug level.
func (c *Counted) Log(l *Logger, msg string, keysAndValues ...interface{}) {
	if c.remaining.Add(-1) >= 0 {
		l.Info(msg, keysAndValues...)
		return
	}
	l.Debug(msg, keysAndValues...)
}
