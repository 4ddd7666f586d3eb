package cooldown

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiv-gear-planner/gear-planner-sub002/internal/spells"
)

type fakeClock struct {
	now time.Duration
}

func (c *fakeClock) Now() time.Duration { return c.now }

func ogcd(name string, cd time.Duration, charges int) *spells.Ability {
	return &spells.Ability{
		Kind:     spells.KindOGCD,
		Name:     name,
		Cooldown: &spells.Cooldown{Time: cd, Charges: charges},
	}
}

func TestChargesRecoverAfterOneInterval(t *testing.T) {
	for _, charges := range []int{1, 2, 3} {
		clock := &fakeClock{now: 10 * time.Second}
		tr := New(clock.Now, ModeReject, nil)
		a := ogcd("Burst", 30*time.Second, charges)

		for i := 0; i < charges; i++ {
			require.NoError(t, tr.UseAbility(a))
		}

		st := tr.StatusOfAt(a, clock.now)
		assert.False(t, st.ReadyToUse, "charges=%d", charges)
		assert.Equal(t, 0, st.CurrentCharges)
		assert.Equal(t, clock.now+30*time.Second, st.ReadyAt)

		assert.False(t, tr.StatusOfAt(a, clock.now+30*time.Second-time.Millisecond).ReadyToUse)
		later := tr.StatusOfAt(a, clock.now+30*time.Second)
		assert.True(t, later.ReadyToUse)
		assert.Equal(t, 1, later.CurrentCharges)
	}
}

func TestCapPushedFromCappedAtNotNow(t *testing.T) {
	clock := &fakeClock{}
	tr := New(clock.Now, ModeReject, nil)
	a := ogcd("Two Charges", 40*time.Second, 2)

	require.NoError(t, tr.UseAbility(a))
	clock.now = 10 * time.Second
	require.NoError(t, tr.UseAbility(a))

	st := tr.StatusOfAt(a, clock.now)
	assert.Equal(t, 80*time.Second, st.CappedAt)
	assert.Equal(t, 0, st.CurrentCharges)
	assert.Equal(t, 40*time.Second, st.ReadyAt)

	assert.Equal(t, 1, tr.StatusOfAt(a, 40*time.Second).CurrentCharges)
	full := tr.StatusOfAt(a, 80*time.Second)
	assert.Equal(t, 2, full.CurrentCharges)
	assert.True(t, full.Capped)
}

func TestNoCooldownAlwaysReady(t *testing.T) {
	tr := New(func() time.Duration { return 0 }, ModeReject, nil)
	a := &spells.Ability{Kind: spells.KindGCD, Name: "Filler", GCD: 2500 * time.Millisecond}
	require.NoError(t, tr.UseAbility(a))
	require.NoError(t, tr.UseAbility(a))
	st := tr.StatusOf(a)
	assert.True(t, st.ReadyToUse)
	assert.Equal(t, 1, st.CurrentCharges)
}

func TestStatusOfAtIsIdempotent(t *testing.T) {
	clock := &fakeClock{}
	tr := New(clock.Now, ModeNone, nil)
	a := ogcd("Idem", 60*time.Second, 2)
	require.NoError(t, tr.UseAbility(a))

	first := tr.StatusOfAt(a, 5*time.Second)
	second := tr.StatusOfAt(a, 5*time.Second)
	assert.Equal(t, first, second)
}

func TestRejectMode(t *testing.T) {
	clock := &fakeClock{}
	tr := New(clock.Now, ModeReject, nil)
	a := ogcd("Assize", 40*time.Second, 1)
	require.NoError(t, tr.UseAbility(a))

	clock.now = 5 * time.Second
	err := tr.UseAbility(a)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotReady))
	var violation *ViolationError
	require.True(t, errors.As(err, &violation))
	assert.Equal(t, 40*time.Second, violation.ReadyAt)

	// a rejected use leaves the cap where it was
	assert.Equal(t, 40*time.Second, tr.StatusOf(a).CappedAt)
}

func TestWarnModeLogsAndAllows(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	clock := &fakeClock{}
	tr := New(clock.Now, ModeWarn, logger)
	a := ogcd("Assize", 40*time.Second, 1)

	require.NoError(t, tr.UseAbility(a))
	require.NoError(t, tr.UseAbility(a))
	assert.Contains(t, buf.String(), "ability used while on cooldown")
	assert.Contains(t, buf.String(), "ability=Assize")
	assert.Equal(t, 80*time.Second, tr.StatusOf(a).CappedAt)
}

func TestNoneModeIsSilent(t *testing.T) {
	var buf bytes.Buffer
	tr := New(func() time.Duration { return 0 }, ModeNone, slog.New(slog.NewTextHandler(&buf, nil)))
	a := ogcd("Assize", 40*time.Second, 1)
	require.NoError(t, tr.UseAbility(a))
	require.NoError(t, tr.UseAbility(a))
	assert.Empty(t, buf.String())
}

func TestDelayModeViolationPanics(t *testing.T) {
	tr := New(func() time.Duration { return 0 }, ModeDelay, nil)
	a := ogcd("Assize", 40*time.Second, 1)
	require.NoError(t, tr.UseAbility(a))
	assert.Panics(t, func() { _ = tr.UseAbility(a) })
}

func TestTimeShift(t *testing.T) {
	clock := &fakeClock{now: 8 * time.Second}
	tr := New(clock.Now, ModeReject, nil)
	a := ogcd("Prepull", 60*time.Second, 1)
	require.NoError(t, tr.UseAbility(a))

	tr.TimeShift(-8 * time.Second)
	st := tr.StatusOfAt(a, 0)
	assert.Equal(t, 60*time.Second, st.CappedAt)
	assert.False(t, st.ReadyToUse)
	assert.True(t, tr.StatusOfAt(a, 60*time.Second).ReadyToUse)
}

func TestOverrideAndCopiesShareBucket(t *testing.T) {
	clock := &fakeClock{}
	tr := New(clock.Now, ModeReject, nil)
	a := ogcd("Hasted", 60*time.Second, 1)
	a.ID = 7

	require.NoError(t, tr.UseAbilityWithTime(a, 50*time.Second))
	copyOf := a.Clone()
	copyOf.Name = "Hasted (modified)"
	st := tr.StatusOfAt(copyOf, 10*time.Second)
	assert.False(t, st.ReadyToUse)
	assert.Equal(t, 50*time.Second, st.ReadyAt)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeWarn, m)
	m, err = ParseMode("reject")
	require.NoError(t, err)
	assert.Equal(t, ModeReject, m)
	_, err = ParseMode("later")
	assert.Error(t, err)
}
