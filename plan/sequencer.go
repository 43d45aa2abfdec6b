package plan

// Sequencer hands out run orders within one stage. The zero value is ready to
// use and its first Next returns 1. Each stage gets its own Sequencer; one is
// never shared across stages.
type Sequencer struct {
	n int
}

// Next returns the run order for the next action added to the stage.
func (s *Sequencer) Next() int {
	s.n++
	return s.n
}
