package sim

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiv-gear-planner/gear-planner-sub002/internal/character"
)

func weightStats() character.Stats {
	s := character.Unit()
	s.CritChance = 0.2
	s.DhChance = 0.2
	return s
}

func TestWeights(t *testing.T) {
	job := testJob(NewRotation("Stone", spam(stone)), NewRotation("Glare", spam(glare)))

	report, err := Weights(context.Background(), job, weightStats(), testSettings(), DefaultDeltas())
	require.NoError(t, err)

	assert.Equal(t, "Glare", report.Rotation)
	require.Len(t, report.Weights, len(DefaultDeltas()))
	byStat := map[string]Weight{}
	for _, w := range report.Weights {
		byStat[w.Stat] = w
	}

	// damage is linear in the main stat multiplier, so one percent of it is one percent of DPS
	assert.InDelta(t, report.Baseline*0.01, byStat["Main Stat"].Weight, 1e-9)
	assert.InDelta(t, report.Baseline*0.01, byStat["Determination"].Weight, 1e-9)
	assert.Greater(t, byStat["Critical Hit"].Weight, byStat["Direct Hit"].Weight)
	assert.Greater(t, byStat["Direct Hit"].Weight, 0.0)
	assert.Greater(t, byStat["Main Stat"].PlusDPS, byStat["Main Stat"].MinusDPS)

	var buf bytes.Buffer
	require.NoError(t, report.Print(&buf, true))
	assert.Contains(t, buf.String(), "Rotation: Glare")
	assert.Contains(t, buf.String(), "vs Main")
	assert.Contains(t, buf.String(), "Plus DPS")
}

func TestLookupDelta(t *testing.T) {
	d, err := LookupDelta("CRIT")
	require.NoError(t, err)
	assert.Equal(t, "Critical Hit", d.Name)

	d, err = LookupDelta("determination")
	require.NoError(t, err)
	assert.Equal(t, "det", d.Key)

	_, err = LookupDelta("spell power")
	assert.Error(t, err)
}

func TestSweep(t *testing.T) {
	offsets, err := SweepOffsets(0, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 2}, offsets)

	_, err = SweepOffsets(0, 2, 0)
	assert.Error(t, err)
	_, err = SweepOffsets(2, 1, 1)
	assert.Error(t, err)

	job := testJob(NewRotation("Glare", spam(glare)))
	main, err := LookupDelta("main")
	require.NoError(t, err)
	points, err := Sweep(context.Background(), job, job.Rotations[0], character.Unit(), testSettings(), main, offsets)
	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.InDelta(t, points[0].DPS*1.01, points[1].DPS, 1e-9)
	assert.InDelta(t, points[0].DPS*1.02, points[2].DPS, 1e-9)
}

func TestWriteSweepCSV(t *testing.T) {
	var buf bytes.Buffer
	err := WriteSweepCSV(&buf, []SweepPoint{{Offset: 0, DPS: 100}, {Offset: 1, DPS: 101.5}}, true)
	require.NoError(t, err)
	assert.Equal(t, "stat_offset,dps,dps_per_point\n0.0000,100.0000,\n1.0000,101.5000,1.500000\n", buf.String())
}
