package jobs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	job, err := Lookup(" whm")
	require.NoError(t, err)
	assert.Equal(t, "WHM", job.Name)
	assert.NotEmpty(t, job.Rotations)

	again, err := Lookup("WHM")
	require.NoError(t, err)
	assert.NotSame(t, job, again)

	_, err = Lookup("BLU")
	assert.ErrorContains(t, err, "unknown job")
	assert.Equal(t, []string{"WHM"}, Names())
}
