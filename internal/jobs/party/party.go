package party

import (
	"sort"
	"strings"
	"time"

	"github.com/xiv-gear-planner/gear-planner-sub002/internal/spells"
)

// Category groups raid buffs by what they grant.
type Category string

const (
	CategoryDamage    Category = "damage"
	CategoryCrit      Category = "crit"
	CategoryDirectHit Category = "direct_hit"
)

const (
	ChainStratagem  = "chain_stratagem"
	BattleLitany    = "battle_litany"
	Divination      = "divination"
	Brotherhood     = "brotherhood"
	Embolden        = "embolden"
	ArcaneCircle    = "arcane_circle"
	SearingLight    = "searing_light"
	TechnicalFinish = "technical_finish"
	BattleVoice     = "battle_voice"
	RadiantFinale   = "radiant_finale"
	Dokumori        = "dokumori"
	StarryMuse      = "starry_muse"
)

const (
	// StandardDuration and StandardCooldown match the two-minute raid buff cadence.
	StandardDuration = 20 * time.Second
	StandardCooldown = 120 * time.Second
)

func raidBuff(name, job string, status int, effects spells.Effects) *spells.Buff {
	return spells.MustBuff(&spells.Buff{
		Kind:     spells.PartyBuff,
		Name:     name,
		StatusID: status,
		Job:      job,
		Duration: StandardDuration,
		Cooldown: StandardCooldown,
		Effects:  effects,
	})
}

var catalogue = map[string]*spells.Buff{
	ChainStratagem:  raidBuff("Chain Stratagem", "SCH", 1221, spells.Effects{CritChanceIncrease: 0.10}),
	BattleLitany:    raidBuff("Battle Litany", "DRG", 786, spells.Effects{CritChanceIncrease: 0.10}),
	Divination:      raidBuff("Divination", "AST", 1878, spells.Effects{DmgIncrease: 0.06}),
	Brotherhood:     raidBuff("Brotherhood", "MNK", 1185, spells.Effects{DmgIncrease: 0.05}),
	Embolden:        raidBuff("Embolden", "RDM", 1297, spells.Effects{DmgIncrease: 0.05}),
	ArcaneCircle:    raidBuff("Arcane Circle", "RPR", 2599, spells.Effects{DmgIncrease: 0.03}),
	SearingLight:    raidBuff("Searing Light", "SMN", 2703, spells.Effects{DmgIncrease: 0.05}),
	TechnicalFinish: raidBuff("Technical Finish", "DNC", 1822, spells.Effects{DmgIncrease: 0.05}),
	BattleVoice:     raidBuff("Battle Voice", "BRD", 141, spells.Effects{DhitChanceIncrease: 0.20}),
	RadiantFinale:   raidBuff("Radiant Finale", "BRD", 2964, spells.Effects{DmgIncrease: 0.06}),
	Dokumori:        raidBuff("Dokumori", "NIN", 3849, spells.Effects{DmgIncrease: 0.05}),
	StarryMuse:      raidBuff("Starry Muse", "PCT", 3685, spells.Effects{DmgIncrease: 0.05}),
}

var categories = map[string]Category{
	ChainStratagem:  CategoryCrit,
	BattleLitany:    CategoryCrit,
	Divination:      CategoryDamage,
	Brotherhood:     CategoryDamage,
	Embolden:        CategoryDamage,
	ArcaneCircle:    CategoryDamage,
	SearingLight:    CategoryDamage,
	TechnicalFinish: CategoryDamage,
	BattleVoice:     CategoryDirectHit,
	RadiantFinale:   CategoryDamage,
	Dokumori:        CategoryDamage,
	StarryMuse:      CategoryDamage,
}

// Normalize returns the canonical lowercase snake_case buff name.
func Normalize(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.Join(strings.FieldsFunc(name, func(r rune) bool {
		return r == ' ' || r == '-' || r == '_'
	}), "_")
}

// Known returns true if the buff identifier is recognized.
func Known(name string) bool {
	_, ok := catalogue[Normalize(name)]
	return ok
}

// Lookup returns the buff definition for a name in any spelling.
func Lookup(name string) (*spells.Buff, bool) {
	b, ok := catalogue[Normalize(name)]
	return b, ok
}

// CategoryOf returns the category and whether the buff is known.
func CategoryOf(name string) (Category, bool) {
	c, ok := categories[Normalize(name)]
	return c, ok
}

// Names returns all buff identifiers in sorted order.
func Names() []string {
	out := make([]string, 0, len(catalogue))
	for k := range catalogue {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Enabled returns the buffs switched on in enabled, in sorted name order.
// Unknown names are ignored; config validation reports them.
func Enabled(enabled map[string]bool) []*spells.Buff {
	on := make(map[string]bool, len(enabled))
	for k, v := range enabled {
		if v {
			on[Normalize(k)] = true
		}
	}
	var out []*spells.Buff
	for _, name := range Names() {
		if on[name] {
			out = append(out, catalogue[name])
		}
	}
	return out
}

// All returns every buff enabled, the usual "full party" setting.
func All() map[string]bool {
	out := make(map[string]bool, len(catalogue))
	for k := range catalogue {
		out[k] = true
	}
	return out
}
