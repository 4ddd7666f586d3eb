package apl

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeContext struct {
	buffs     map[string]time.Duration
	stacks    map[string]int
	dots      map[string]time.Duration
	cooldowns map[string]time.Duration
	charges   map[string]int
	remaining time.Duration
	started   bool
}

func (f *fakeContext) BuffActive(name string) bool {
	_, ok := f.buffs[name]
	return ok
}
func (f *fakeContext) BuffRemaining(name string) time.Duration   { return f.buffs[name] }
func (f *fakeContext) BuffStacks(name string) int                { return f.stacks[name] }
func (f *fakeContext) DotRemaining(ability string) time.Duration { return f.dots[ability] }
func (f *fakeContext) CooldownReady(ability string) bool         { return f.cooldowns[ability] == 0 }
func (f *fakeContext) CooldownRemaining(a string) time.Duration  { return f.cooldowns[a] }
func (f *fakeContext) Charges(ability string) int                { return f.charges[ability] }
func (f *fakeContext) FightRemaining() time.Duration             { return f.remaining }
func (f *fakeContext) CombatStarted() bool                       { return f.started }

var testNames = NewNames(
	[]string{"Glare III", "Dia", "Assize", "Afflatus Misery", "Presence of Mind"},
	[]string{"Presence of Mind", "Swiftcast"},
)

func compileOne(t *testing.T, src string) *Action {
	t.Helper()
	file, err := ParseRotation([]byte(src))
	require.NoError(t, err)
	rot, err := Compile(file, testNames)
	require.NoError(t, err)
	require.Len(t, rot.Actions, 1)
	return rot.Actions[0]
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "glare_iii", NormalizeName("Glare III"))
	assert.Equal(t, "glare_iii", NormalizeName("  glare_iii "))
	assert.Equal(t, "presence_of_mind", NormalizeName("Presence-of-Mind"))
}

func TestCompileActions(t *testing.T) {
	file, err := ParseRotation([]byte(`
name: whm
job: WHM
variables:
  refresh: 3
prepull:
  - action: special
    label: Pull
  - action: use
    ability: Glare III
rotation:
  - action: use_ogcd
    ability: Presence of Mind
  - action: use_until
    ability: glare_iii
    until_seconds: 10
  - action: wait
    duration_seconds: 0.5
  - action: macro
    steps:
      - action: use
        ability: Dia
      - action: special
        label: refreshed
`))
	require.NoError(t, err)
	rot, err := Compile(file, testNames)
	require.NoError(t, err)

	assert.Equal(t, "WHM", rot.Job)
	require.Len(t, rot.Prepull, 2)
	assert.Equal(t, ActionSpecial, rot.Prepull[0].Type)
	assert.Equal(t, "glare_iii", rot.Prepull[1].Ability)

	require.Len(t, rot.Actions, 4)
	assert.Equal(t, ActionUseOgcd, rot.Actions[0].Type)
	assert.Equal(t, "presence_of_mind", rot.Actions[0].Ability)
	assert.Equal(t, ActionUseUntil, rot.Actions[1].Type)
	assert.Equal(t, 10*time.Second, rot.Actions[1].Until)
	assert.Equal(t, 500*time.Millisecond, rot.Actions[2].Duration)
	require.Len(t, rot.Actions[3].Steps, 2)
}

func TestCompileRejects(t *testing.T) {
	tests := map[string]string{
		"unknown ability": `
rotation:
  - action: use
    ability: Holy`,
		"unknown buff": `
rotation:
  - action: use
    ability: Dia
    when:
      buff_active:
        buff: Thin Air`,
		"missing ability": `
rotation:
  - action: use_ogcd`,
		"special at top level": `
rotation:
  - action: special
    label: nope`,
		"unknown action": `
rotation:
  - action: cast_spell
    ability: Dia`,
		"empty rotation": `
name: nothing`,
		"unknown condition": `
rotation:
  - action: use
    ability: Dia
    when:
      resource_percent:
        resource: mana`,
		"undefined variable": `
rotation:
  - action: use
    ability: Dia
    when:
      dot_remaining:
        ability: Dia
        lt_seconds: ${refresh}`,
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			file, err := ParseRotation([]byte(src))
			require.NoError(t, err)
			_, err = Compile(file, testNames)
			assert.Error(t, err)
		})
	}
}

func TestConditions(t *testing.T) {
	ctx := &fakeContext{
		buffs:     map[string]time.Duration{"presence_of_mind": 8 * time.Second},
		stacks:    map[string]int{"presence_of_mind": 2},
		dots:      map[string]time.Duration{"dia": 2 * time.Second},
		cooldowns: map[string]time.Duration{"assize": 5 * time.Second},
		charges:   map[string]int{"afflatus_misery": 1},
		remaining: 20 * time.Second,
		started:   true,
	}
	tests := []struct {
		when string
		want bool
	}{
		{`buff_active: {buff: Presence of Mind}`, true},
		{`buff_active: {buff: Presence of Mind, min_remaining: 10}`, false},
		{`buff_active: {buff: Swiftcast}`, false},
		{`dot_remaining: {ability: Dia, lt_seconds: 3}`, true},
		{`dot_remaining: {ability: Dia, gte_seconds: 3}`, false},
		{`cooldown_ready: {ability: Assize}`, false},
		{`cooldown_ready: {ability: Dia}`, true},
		{`cooldown_remaining: {ability: Assize, lte_seconds: 5}`, true},
		{`charges: {ability: Afflatus Misery, gte: 1}`, true},
		{`charges: {buff: Presence of Mind, gt: 2}`, false},
		{`fight_remaining: {gt_seconds: 15}`, true},
		{`combat_started: false`, false},
		{`not: {cooldown_ready: {ability: Assize}}`, true},
		{`any: [{cooldown_ready: {ability: Assize}}, {fight_remaining: {lt_seconds: 30}}]`, true},
		{`all: [{cooldown_ready: {ability: Dia}}, {fight_remaining: {lt_seconds: 10}}]`, false},
		{`dot_remaining: {ability: Dia, lt_seconds: "${refresh}"}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.when, func(t *testing.T) {
			src := "variables:\n  refresh: 3\nrotation:\n  - action: use\n    ability: Dia\n    when:\n      " + tt.when + "\n"
			action := compileOne(t, src)
			assert.Equal(t, tt.want, action.Condition.Eval(ctx))
		})
	}
}

func TestLoadRotationResolvesImports(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	write("common.yaml", `
variables:
  refresh: 3
prepull:
  - action: use
    ability: Glare III
rotation:
  - action: use
    ability: Dia
    when:
      dot_remaining: {ability: Dia, lt_seconds: "${refresh}"}
`)
	write("main.yaml", `
name: main
imports: [common.yaml]
rotation:
  - action: use
    ability: Glare III
`)

	file, err := LoadRotation(dir, "main.yaml")
	require.NoError(t, err)
	require.Len(t, file.Prepull, 1)
	require.Len(t, file.Rotation, 2)
	assert.Equal(t, "Dia", file.Rotation[0].Ability)

	rot, err := Compile(file, testNames)
	require.NoError(t, err)
	assert.Len(t, rot.Actions, 2)
}

func TestLoadRotationDetectsCycles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("imports: [b.yaml]\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yaml"), []byte("imports: [a.yaml]\n"), 0o644))

	_, err := LoadRotation(dir, "a.yaml")
	assert.ErrorContains(t, err, "import cycle")
}
