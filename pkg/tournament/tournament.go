package tournament

import (
	"fmt"
	"slices"
	"strings"
)

// Format selects a scheduling algorithm
type Format string

// Supported tournament formats
const (
	FormatKnockout   Format = "knockout"
	FormatRoundRobin Format = "round-robin"
	FormatSwiss      Format = "swiss"
	FormatCustom     Format = "custom"
)

var formatNames = map[Format]string{
	FormatKnockout:   "Single Knockout",
	FormatRoundRobin: "Round-Robin",
	FormatSwiss:      "Swiss System",
	FormatCustom:     "Custom",
}

// Formats lists every supported format in menu order
func Formats() []Format {
	return []Format{FormatKnockout, FormatRoundRobin, FormatSwiss, FormatCustom}
}

// DisplayName returns the human readable format name
func (f Format) DisplayName() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return string(f)
}

// ParseFormat accepts a format identifier, its display name or its 1-based menu number
func ParseFormat(s string) (Format, error) {
	s = strings.TrimSpace(s)
	for i, f := range Formats() {
		if strings.EqualFold(s, string(f)) ||
			strings.EqualFold(s, f.DisplayName()) ||
			s == fmt.Sprint(i+1) {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: unknown format %q", ErrConfiguration, s)
}

// CheckParticipants reports whether n participants satisfy the construction
// rules of the format. A custom field that cannot be seeded into a knockout
// only fails once played.
func (f Format) CheckParticipants(n int, opts Options) error {
	switch f {
	case FormatKnockout:
		return checkKnockout(n)
	case FormatRoundRobin:
		return checkRoundRobin(n)
	case FormatSwiss:
		return checkSwiss(n, opts.SwissRounds)
	case FormatCustom:
		return checkCustom(n, opts.GroupSwissRounds)
	default:
		return fmt.Errorf("%w: unknown format %q", ErrConfiguration, f)
	}
}

// Options tune the formats that need more than a participant list
type Options struct {
	SwissRounds      int // rounds of a Swiss tournament
	GroupSwissRounds int // rounds of the Swiss group phase of a custom tournament
}

// DefaultOptions returns the options used when none are configured
func DefaultOptions() Options {
	return Options{
		SwissRounds:      3,
		GroupSwissRounds: 3,
	}
}

// Tournament schedules matches between a fixed set of participants
type Tournament interface {
	Format() Format
	// Play runs every match and returns the final ranking
	Play() ([]*Competitor, error)
	FinalRanking() []*Competitor
	MatchCount() int
	TieCount() int
	DuplicateMatchupCount() int
	History() []Matchup
}

// New creates a tournament of the given format
func New(format Format, participants []*Competitor, resolver *Resolver, opts Options) (Tournament, error) {
	switch format {
	case FormatKnockout:
		return NewSingleKnockout(participants, resolver)
	case FormatRoundRobin:
		return NewRoundRobin(participants, resolver)
	case FormatSwiss:
		return NewSwiss(participants, resolver, opts.SwissRounds)
	case FormatCustom:
		return NewCustom(participants, resolver, opts.GroupSwissRounds)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", ErrConfiguration, format)
	}
}

// ledger is the state shared by every format: the participants, the resolver
// and the append-only history of played matchups.
type ledger struct {
	participants []*Competitor
	resolver     *Resolver
	history      []Matchup
	played       bool
}

func newLedger(participants []*Competitor, resolver *Resolver) (ledger, error) {
	if resolver == nil {
		return ledger{}, fmt.Errorf("%w: resolver is required", ErrConfiguration)
	}
	seen := make(map[string]struct{}, len(participants))
	for i, c := range participants {
		if c == nil {
			return ledger{}, fmt.Errorf("%w: participant %d is missing", ErrConfiguration, i)
		}
		if _, dup := seen[c.name]; dup {
			return ledger{}, fmt.Errorf("%w: duplicate competitor %q", ErrConfiguration, c.name)
		}
		seen[c.name] = struct{}{}
	}
	return ledger{
		participants: slices.Clone(participants),
		resolver:     resolver,
	}, nil
}

// begin marks the tournament as played
func (l *ledger) begin() error {
	if l.played {
		return ErrAlreadyPlayed
	}
	l.played = true
	return nil
}

// playMatch records the matchup and resolves it with the first seat defending
func (l *ledger) playMatch(triad [TeamsInMatch]*Competitor) (*Competitor, error) {
	if err := validateTriad(triad); err != nil {
		return nil, err
	}
	l.history = append(l.history, NewMatchup(triad[0], triad[1], triad[2]))
	return l.resolver.Resolve(triad, 0)
}

// FinalRanking returns the participants ordered by score, best first
func (l *ledger) FinalRanking() []*Competitor {
	return RankByScore(l.participants)
}

// MatchCount returns the number of matches played
func (l *ledger) MatchCount() int {
	return len(l.history)
}

// TieCount returns how many participants share a score tuple with another one
func (l *ledger) TieCount() int {
	distinct := make(map[Score]struct{}, len(l.participants))
	for _, c := range l.participants {
		distinct[c.Score()] = struct{}{}
	}
	return len(l.participants) - len(distinct)
}

// DuplicateMatchupCount returns how many played matchups repeat an earlier one
func (l *ledger) DuplicateMatchupCount() int {
	return CountDuplicates(l.history)
}

// History returns a copy of the played matchups in order
func (l *ledger) History() []Matchup {
	return slices.Clone(l.history)
}

// triads splits competitors into consecutive groups of three.
// len(competitors) must be a multiple of three.
func triads(competitors []*Competitor) [][TeamsInMatch]*Competitor {
	groups := make([][TeamsInMatch]*Competitor, 0, len(competitors)/TeamsInMatch)
	for i := 0; i+TeamsInMatch <= len(competitors); i += TeamsInMatch {
		groups = append(groups, [TeamsInMatch]*Competitor(competitors[i:i+TeamsInMatch]))
	}
	return groups
}
