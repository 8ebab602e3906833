package tournament

import "fmt"

// SingleKnockout plays brackets of three; only bracket winners advance
type SingleKnockout struct {
	ledger
}

// NewSingleKnockout requires the number of participants to be a power of three
func NewSingleKnockout(participants []*Competitor, resolver *Resolver) (*SingleKnockout, error) {
	if err := checkKnockout(len(participants)); err != nil {
		return nil, err
	}
	l, err := newLedger(participants, resolver)
	if err != nil {
		return nil, err
	}
	return &SingleKnockout{ledger: l}, nil
}

// Format implements Tournament
func (t *SingleKnockout) Format() Format {
	return FormatKnockout
}

// Play implements Tournament. A single participant wins without a match.
func (t *SingleKnockout) Play() ([]*Competitor, error) {
	if err := t.begin(); err != nil {
		return nil, err
	}
	field := t.participants
	for len(field) > 1 {
		winners := make([]*Competitor, 0, len(field)/TeamsInMatch)
		for _, bracket := range triads(field) {
			winner, err := t.playMatch(bracket)
			if err != nil {
				return nil, err
			}
			winners = append(winners, winner)
		}
		field = winners
	}
	return t.FinalRanking(), nil
}

func checkKnockout(n int) error {
	if !IsPowerOfThree(n) {
		return fmt.Errorf("%w: single knockout needs a power of three participants, got %d",
			ErrConfiguration, n)
	}
	return nil
}

// IsPowerOfThree reports whether n is 3^k for some k >= 0
func IsPowerOfThree(n int) bool {
	if n < 1 {
		return false
	}
	for n%TeamsInMatch == 0 {
		n /= TeamsInMatch
	}
	return n == 1
}
