package tournament

import "fmt"

// RoundRobin plays every combination of three participants exactly once
type RoundRobin struct {
	ledger
}

// NewRoundRobin requires at least three participants
func NewRoundRobin(participants []*Competitor, resolver *Resolver) (*RoundRobin, error) {
	if err := checkRoundRobin(len(participants)); err != nil {
		return nil, err
	}
	l, err := newLedger(participants, resolver)
	if err != nil {
		return nil, err
	}
	return &RoundRobin{ledger: l}, nil
}

func checkRoundRobin(n int) error {
	if n < TeamsInMatch {
		return fmt.Errorf("%w: round robin needs at least %d participants, got %d",
			ErrConfiguration, TeamsInMatch, n)
	}
	return nil
}

// Format implements Tournament
func (t *RoundRobin) Format() Format {
	return FormatRoundRobin
}

// Play implements Tournament. Combinations are visited in lexicographic
// order of the participant positions.
func (t *RoundRobin) Play() ([]*Competitor, error) {
	if err := t.begin(); err != nil {
		return nil, err
	}
	p := t.participants
	for i := 0; i < len(p); i++ {
		for j := i + 1; j < len(p); j++ {
			for k := j + 1; k < len(p); k++ {
				if _, err := t.playMatch([TeamsInMatch]*Competitor{p[i], p[j], p[k]}); err != nil {
					return nil, err
				}
			}
		}
	}
	return t.FinalRanking(), nil
}
