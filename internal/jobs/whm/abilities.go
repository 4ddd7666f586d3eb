package whm

import (
	"time"

	"github.com/xiv-gear-planner/gear-planner-sub002/internal/damage"
	"github.com/xiv-gear-planner/gear-planner-sub002/internal/spells"
)

// JobName is the job abbreviation used for party buff ownership.
const JobName = "WHM"

var PresenceOfMindBuff = spells.MustBuff(&spells.Buff{
	Name:     "Presence of Mind",
	StatusID: 157,
	Duration: 15 * time.Second,
	Effects:  spells.Effects{Haste: 20},
})

var SwiftcastBuff = spells.MustBuff(&spells.Buff{
	Name:      "Swiftcast",
	StatusID:  167,
	SelfOnly:  true,
	Duration:  10 * time.Second,
	AppliesTo: spells.OnlyCasts,
	BeforeAbility: func(ctl spells.Controller, a *spells.Ability) *spells.Ability {
		ctl.RemoveSelf()
		return a.WithCast(0)
	},
})

// ThinAirBuff zeroes the MP cost of the next GCD. MP is not simulated, so it
// only matters for its consumption.
var ThinAirBuff = spells.MustBuff(&spells.Buff{
	Name:      "Thin Air",
	StatusID:  1217,
	SelfOnly:  true,
	Duration:  12 * time.Second,
	AppliesTo: func(a *spells.Ability) bool { return a.IsGCD() },
	BeforeAbility: func(ctl spells.Controller, a *spells.Ability) *spells.Ability {
		ctl.RemoveSelf()
		return a
	},
})

var LucidDreamingBuff = spells.MustBuff(&spells.Buff{
	Name:     "Lucid Dreaming",
	StatusID: 1204,
	SelfOnly: true,
	Duration: 21 * time.Second,
})

var Glare3 = spells.MustAbility(&spells.Ability{
	Kind:       spells.KindGCD,
	Name:       "Glare III",
	ID:         25859,
	AttackType: damage.Spell,
	Potency:    330,
	Cast:       1500 * time.Millisecond,
	GCD:        2500 * time.Millisecond,
})

var Dia = spells.MustAbility(&spells.Ability{
	Kind:       spells.KindGCD,
	Name:       "Dia",
	ID:         16532,
	AttackType: damage.Spell,
	Potency:    85,
	Dot:        &spells.Dot{ID: 1871, Potency: 85, Duration: 30 * time.Second},
	GCD:        2500 * time.Millisecond,
})

var Assize = spells.MustAbility(&spells.Ability{
	Kind:       spells.KindOGCD,
	Name:       "Assize",
	ID:         3571,
	AttackType: damage.Ability,
	Potency:    400,
	Cooldown:   &spells.Cooldown{Time: 40 * time.Second},
})

var PresenceOfMind = spells.MustAbility(&spells.Ability{
	Kind:           spells.KindOGCD,
	Name:           "Presence of Mind",
	ID:             136,
	Cooldown:       &spells.Cooldown{Time: 120 * time.Second},
	ActivatesBuffs: []*spells.Buff{PresenceOfMindBuff},
})

// AfflatusMisery spends three blood lilies. One lily blooms every 20s, which
// the cooldown stands in for.
var AfflatusMisery = spells.MustAbility(&spells.Ability{
	Kind:       spells.KindGCD,
	Name:       "Afflatus Misery",
	ID:         16535,
	AttackType: damage.Spell,
	Potency:    1360,
	GCD:        2500 * time.Millisecond,
	Cooldown:   &spells.Cooldown{Time: 60 * time.Second},
})

var Swiftcast = spells.MustAbility(&spells.Ability{
	Kind:           spells.KindOGCD,
	Name:           "Swiftcast",
	ID:             7561,
	Cooldown:       &spells.Cooldown{Time: 40 * time.Second},
	ActivatesBuffs: []*spells.Buff{SwiftcastBuff},
})

var LucidDreaming = spells.MustAbility(&spells.Ability{
	Kind:           spells.KindOGCD,
	Name:           "Lucid Dreaming",
	ID:             7562,
	Cooldown:       &spells.Cooldown{Time: 60 * time.Second},
	ActivatesBuffs: []*spells.Buff{LucidDreamingBuff},
})

var ThinAir = spells.MustAbility(&spells.Ability{
	Kind:           spells.KindOGCD,
	Name:           "Thin Air",
	ID:             7430,
	Cooldown:       &spells.Cooldown{Time: 60 * time.Second, Charges: 2},
	ActivatesBuffs: []*spells.Buff{ThinAirBuff},
})

// Abilities is the WHM catalogue in display order.
var Abilities = []*spells.Ability{
	Glare3,
	Dia,
	Assize,
	PresenceOfMind,
	AfflatusMisery,
	Swiftcast,
	LucidDreaming,
	ThinAir,
}
