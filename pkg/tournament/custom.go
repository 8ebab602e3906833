package tournament

import "fmt"

const (
	// CustomGroups is the number of groups in the first phase of a custom tournament
	CustomGroups = 3
	// CustomMinParticipants is the smallest field a custom tournament accepts
	CustomMinParticipants = CustomGroups * TeamsInMatch
)

// Custom is a two phase tournament. A random draw splits the field into groups
// that each play Swiss or Round Robin, then the seeded field plays a single
// knockout. Counters accumulate over both phases.
type Custom struct {
	ledger
	groupRounds int
	groups      [][]*Competitor
	seeded      []*Competitor
}

// NewCustom requires at least nine participants in a multiple of three
func NewCustom(participants []*Competitor, resolver *Resolver, groupRounds int) (*Custom, error) {
	if err := checkCustom(len(participants), groupRounds); err != nil {
		return nil, err
	}
	l, err := newLedger(participants, resolver)
	if err != nil {
		return nil, err
	}
	return &Custom{ledger: l, groupRounds: groupRounds}, nil
}

func checkCustom(n, groupRounds int) error {
	if n < CustomMinParticipants || n%TeamsInMatch != 0 {
		return fmt.Errorf("%w: custom needs a multiple of %d and at least %d participants, got %d",
			ErrConfiguration, TeamsInMatch, CustomMinParticipants, n)
	}
	if groupRounds < 1 {
		return fmt.Errorf("%w: group phase needs at least one swiss round, got %d",
			ErrConfiguration, groupRounds)
	}
	return nil
}

// Format implements Tournament
func (t *Custom) Format() Format {
	return FormatCustom
}

// Groups returns the group draw, available after Play
func (t *Custom) Groups() [][]*Competitor {
	return t.groups
}

// Seeded returns the knockout seeding, available after Play
func (t *Custom) Seeded() []*Competitor {
	return t.seeded
}

// Play implements Tournament. The knockout phase fails with ErrConfiguration
// when the seeded field is not a power of three.
func (t *Custom) Play() ([]*Competitor, error) {
	if err := t.begin(); err != nil {
		return nil, err
	}

	t.resolver.stream.Shuffle(len(t.participants), func(i, j int) {
		t.participants[i], t.participants[j] = t.participants[j], t.participants[i]
	})
	t.groups = SplitGroups(t.participants, CustomGroups)

	for i, group := range t.groups {
		var phase Tournament
		var err error
		if len(group)%TeamsInMatch == 0 {
			phase, err = NewSwiss(group, t.resolver, t.groupRounds)
		} else {
			phase, err = NewRoundRobin(group, t.resolver)
		}
		if err != nil {
			return nil, fmt.Errorf("group %d: %w", i+1, err)
		}
		if err := t.runPhase(phase); err != nil {
			return nil, fmt.Errorf("group %d: %w", i+1, err)
		}
	}

	seeded, err := SeedKnockout(t.groups)
	if err != nil {
		return nil, err
	}
	t.seeded = seeded
	knockout, err := NewSingleKnockout(seeded, t.resolver)
	if err != nil {
		return nil, fmt.Errorf("knockout phase: %w", err)
	}
	if err := t.runPhase(knockout); err != nil {
		return nil, fmt.Errorf("knockout phase: %w", err)
	}
	return t.FinalRanking(), nil
}

// runPhase plays a sub tournament and appends its matchups to the history
func (t *Custom) runPhase(phase Tournament) error {
	_, err := phase.Play()
	t.history = append(t.history, phase.History()...)
	return err
}

// SplitGroups deals competitors into n groups by position modulo n
func SplitGroups(competitors []*Competitor, n int) [][]*Competitor {
	groups := make([][]*Competitor, n)
	for i, c := range competitors {
		groups[i%n] = append(groups[i%n], c)
	}
	return groups
}

// SeedKnockout interleaves equally sized groups into a knockout field. Row i
// takes groups[j][(i+j) mod S] from every group j, so consecutive triads never
// hold two members of the same group and every competitor appears once.
func SeedKnockout(groups [][]*Competitor) ([]*Competitor, error) {
	if len(groups) == 0 {
		return nil, nil
	}
	size := len(groups[0])
	for j, g := range groups {
		if len(g) != size {
			return nil, fmt.Errorf("%w: group %d has %d members, want %d",
				ErrConfiguration, j+1, len(g), size)
		}
	}
	seeded := make([]*Competitor, 0, size*len(groups))
	for i := 0; i < size; i++ {
		for j, g := range groups {
			seeded = append(seeded, g[(i+j)%size])
		}
	}
	return seeded, nil
}
