package loop

// #region sink

// Sink receives immutable round records and the single terminal result for
// a pack. Implementations must never edit a previously recorded round.
type Sink interface {
	RecordRound(pack string, round Round) error
	RecordTerminal(pack string, result Result) error
}

// #endregion

// #region multi-sink

// MultiSink fans records out to several sinks in order.
type MultiSink []Sink

// RecordRound forwards the round to every sink, returning the first error.
func (m MultiSink) RecordRound(pack string, round Round) error {
	for _, s := range m {
		if err := s.RecordRound(pack, round); err != nil {
			return err
		}
	}
	return nil
}

// RecordTerminal forwards the terminal result to every sink.
func (m MultiSink) RecordTerminal(pack string, result Result) error {
	for _, s := range m {
		if err := s.RecordTerminal(pack, result); err != nil {
			return err
		}
	}
	return nil
}

// #endregion
