package conductor

import "time"

// tickerSource is the default FrameSource, a time.Ticker at the frame interval.
type tickerSource struct {
	t *time.Ticker
}

func newTickerSource(interval time.Duration) *tickerSource {
	return &tickerSource{t: time.NewTicker(interval)}
}

func (s *tickerSource) Frames() <-chan time.Time { return s.t.C }

func (s *tickerSource) Stop() { s.t.Stop() }
