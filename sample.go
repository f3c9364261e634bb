package fable

import "math/rand"

// SampleMode selects how a sampler walks its value list.
type SampleMode uint8

const (
	// SampleShuffle repeats the list in shuffled order, reshuffling after
	// each full pass.
	SampleShuffle SampleMode = iota
	// SampleCycle repeats the list in its original order.
	SampleCycle
	// SampleSequence advances once through the list, then sticks on the
	// last element forever.
	SampleSequence
)

// ParseSampleMode maps the script-facing mode names onto SampleMode.
// Unrecognized names fall back to SampleCycle.
func ParseSampleMode(name string) SampleMode {
	switch name {
	case "shuffle":
		return SampleShuffle
	case "sequence":
		return SampleSequence
	default:
		return SampleCycle
	}
}

// sampler is the memoized per-id generator state behind Session.Sample.
// The mode and value list are fixed by the first call for a given id.
type sampler struct {
	mode   SampleMode
	values []string
	order  []int // shuffle order, regenerated each full pass
	cursor int
	rng    *rand.Rand
}

func newSampler(mode SampleMode, values []string, rng *rand.Rand) *sampler {
	s := &sampler{mode: mode, values: values, rng: rng}
	if mode == SampleShuffle {
		s.reshuffle()
	}
	return s
}

func (s *sampler) reshuffle() {
	if s.order == nil {
		s.order = make([]int, len(s.values))
	}
	for i := range s.order {
		s.order[i] = i
	}
	s.rng.Shuffle(len(s.order), func(i, j int) {
		s.order[i], s.order[j] = s.order[j], s.order[i]
	})
}

// next pulls the next value. Empty value lists return "".
func (s *sampler) next() string {
	if len(s.values) == 0 {
		return ""
	}
	switch s.mode {
	case SampleShuffle:
		v := s.values[s.order[s.cursor]]
		s.cursor++
		if s.cursor >= len(s.values) {
			s.cursor = 0
			s.reshuffle()
		}
		return v
	case SampleSequence:
		v := s.values[s.cursor]
		if s.cursor < len(s.values)-1 {
			s.cursor++
		}
		return v
	default: // SampleCycle
		v := s.values[s.cursor]
		s.cursor = (s.cursor + 1) % len(s.values)
		return v
	}
}
