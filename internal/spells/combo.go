package spells

// DefaultComboKey is used when a combo does not name its own key.
const DefaultComboKey = "all"

// ComboBehavior controls what a combo key does when no entry matches.
type ComboBehavior int

const (
	// ComboBreak resets the key when the ability does not continue it.
	ComboBreak ComboBehavior = iota
	// ComboNoBreak leaves the key untouched.
	ComboNoBreak
)

// ComboEntry substitutes Potency when the previous ability on the key is one of From.
type ComboEntry struct {
	From    []*Ability
	Potency float64
}

// Combo is the combo table of one ability for one key.
type Combo struct {
	Key      string
	Start    bool
	Behavior ComboBehavior
	Entries  []ComboEntry
}

// ComboKey returns the key with the default applied.
func (c Combo) ComboKey() string {
	if c.Key == "" {
		return DefaultComboKey
	}
	return c.Key
}

// Match returns the entry continuing from prev.
func (c Combo) Match(prev *Ability) (ComboEntry, bool) {
	if prev == nil {
		return ComboEntry{}, false
	}
	for _, entry := range c.Entries {
		for _, from := range entry.From {
			if from.Same(prev) {
				return entry, true
			}
		}
	}
	return ComboEntry{}, false
}

// ComboFor returns the ability's combo table for key.
func (a *Ability) ComboFor(key string) (Combo, bool) {
	for _, c := range a.Combos {
		if c.ComboKey() == key {
			return c, true
		}
	}
	return Combo{}, false
}
