package model

import "slices"

// Tier is a priority band over a troop's ranked preference list
type Tier int

const (
	TierUnranked Tier = iota
	TierTop5
	TierTop10
	TierTop20
)

func (t Tier) String() string {
	switch t {
	case TierTop5:
		return "Top 5"
	case TierTop10:
		return "Top 10"
	case TierTop20:
		return "Top 20"
	default:
		return "Unranked"
	}
}

// TierOf returns the tier for a 0-based preference rank (-1 = not ranked)
func TierOf(rank int) Tier {
	switch {
	case rank < 0:
		return TierUnranked
	case rank < 5:
		return TierTop5
	case rank < 10:
		return TierTop10
	case rank < 20:
		return TierTop20
	default:
		return TierUnranked
	}
}

// Troop is a group attending camp for the week
type Troop struct {
	Name         string
	Scouts       int
	Adults       int
	Campsite     string
	Commissioner string

	// Preferences ranks activity names, index 0 is the most wanted
	Preferences []string
}

// Size returns the person-count (scouts + adults)
func (t *Troop) Size() int {
	return t.Scouts + t.Adults
}

// Rank returns the 0-based preference rank of the activity, or -1 when it is not ranked
func (t *Troop) Rank(activity string) int {
	return slices.Index(t.Preferences, activity)
}

// Tier returns the preference tier of the activity for this troop
func (t *Troop) Tier(activity string) Tier {
	return TierOf(t.Rank(activity))
}

// IsTopFive reports whether the activity is one of the troop's five most wanted
func (t *Troop) IsTopFive(activity string) bool {
	r := t.Rank(activity)
	return r >= 0 && r < 5
}

// TopPreferences returns at most n leading preferences
func (t *Troop) TopPreferences(n int) []string {
	if n > len(t.Preferences) {
		n = len(t.Preferences)
	}
	return t.Preferences[:n]
}

// PreferenceValue scores how much the troop wants the activity: 20 for rank 0 down to 1 for
// rank 19, 0 when the activity is not in the Top 20
func (t *Troop) PreferenceValue(activity string) int {
	r := t.Rank(activity)
	if r < 0 || r >= 20 {
		return 0
	}
	return 20 - r
}
