package tournament

import (
	"fmt"
	"slices"
)

// swissCandidates is how many third-seat candidates are scanned for an unplayed matchup
const swissCandidates = 3

// Swiss pairs competitors of similar score for a fixed number of rounds
type Swiss struct {
	ledger
	rounds int
}

// NewSwiss requires a multiple of three participants and at least one round
func NewSwiss(participants []*Competitor, resolver *Resolver, rounds int) (*Swiss, error) {
	if err := checkSwiss(len(participants), rounds); err != nil {
		return nil, err
	}
	l, err := newLedger(participants, resolver)
	if err != nil {
		return nil, err
	}
	return &Swiss{ledger: l, rounds: rounds}, nil
}

func checkSwiss(n, rounds int) error {
	if n < TeamsInMatch || n%TeamsInMatch != 0 {
		return fmt.Errorf("%w: swiss needs a positive multiple of %d participants, got %d",
			ErrConfiguration, TeamsInMatch, n)
	}
	if rounds < 1 {
		return fmt.Errorf("%w: swiss needs at least one round, got %d", ErrConfiguration, rounds)
	}
	return nil
}

// Format implements Tournament
func (t *Swiss) Format() Format {
	return FormatSwiss
}

// Rounds returns the configured number of rounds
func (t *Swiss) Rounds() int {
	return t.rounds
}

// Play implements Tournament. Every round is paired completely before any of
// its matches is played.
func (t *Swiss) Play() ([]*Competitor, error) {
	if err := t.begin(); err != nil {
		return nil, err
	}
	for round := 1; round <= t.rounds; round++ {
		var pairing [][TeamsInMatch]*Competitor
		if round == 1 {
			pairing = triads(t.participants)
		} else {
			pairing = t.pair()
		}
		for _, triad := range pairing {
			if _, err := t.playMatch(triad); err != nil {
				return nil, err
			}
		}
	}
	return t.FinalRanking(), nil
}

// pair builds a round from the current standings. The two lowest ranked
// competitors are taken first and the third seat goes to the lowest ranked
// of the next candidates that forms an unplayed matchup.
func (t *Swiss) pair() [][TeamsInMatch]*Competitor {
	played := matchupSet(t.history)
	pool := t.FinalRanking()
	pairing := make([][TeamsInMatch]*Competitor, 0, len(pool)/TeamsInMatch)

	for len(pool) > 0 {
		a, b := pool[len(pool)-1], pool[len(pool)-2]
		pool = pool[:len(pool)-2]

		pick := len(pool) - 1
		for k := 0; k < swissCandidates && k < len(pool); k++ {
			idx := len(pool) - 1 - k
			if _, seen := played[NewMatchup(a, b, pool[idx])]; !seen {
				pick = idx
				break
			}
		}
		c := pool[pick]
		pool = slices.Delete(pool, pick, pick+1)
		pairing = append(pairing, [TeamsInMatch]*Competitor{a, b, c})
	}
	return pairing
}
