package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testStats = `job: WHM
main_stat_multi: 23.5
wd_multi: 1.46
det_multi: 1.11
trait_multi: 1.3
crit_chance: 0.22
crit_multi: 1.57
dh_chance: 0.12
speed_multi: 0.96
weapon_delay_seconds: 3.44
`

// writeTestConfig builds a config dir with a one minute fight, the shipped
// rotation scripts and an archive inside the temp dir.
func writeTestConfig(t *testing.T, rotation string) (dir, db string) {
	t.Helper()
	dir = t.TempDir()
	db = filepath.Join(dir, "out", "reports.db")
	simulation := "job: WHM\n" +
		"rotation: " + rotation + "\n" +
		"total_seconds: 60\n" +
		"cycle_seconds: 60\n" +
		"timeout_seconds: 30\n" +
		"party_buffs: {all: true}\n" +
		"database: " + db + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "simulation.yaml"), []byte(simulation), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stats.yaml"), []byte(testStats), 0o644))

	rotDir := filepath.Join(dir, "rotations")
	require.NoError(t, os.MkdirAll(rotDir, 0o755))
	for _, name := range []string{"whm-common.yaml", "whm-standard.yaml"} {
		data, err := os.ReadFile(filepath.Join("..", "..", "configs", "rotations", name))
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(rotDir, name), data, 0o644))
	}
	return dir, db
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "simulator", cmd.Use)

	for _, name := range []string{"run", "validate", "weights", "history", "jobs"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verbose := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)

	format := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "text", format.DefValue)

	configDir := cmd.PersistentFlags().Lookup("config-dir")
	require.NotNil(t, configDir)
	assert.Equal(t, "./configs", configDir.DefValue)
}

func TestInvalidFormat(t *testing.T) {
	_, err := execute(t, "jobs", "--format", "xml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRunCommand(t *testing.T) {
	dir, db := writeTestConfig(t, "whm-standard.yaml")

	out, err := execute(t, "run", "--config-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Job: WHM, Duration: 60s")
	assert.Contains(t, out, "Standard")
	assert.Contains(t, out, "Scripted priority")
	assert.Contains(t, out, "Best: ")
	assert.Contains(t, out, "Glare III")
	assert.Contains(t, out, "Archived as ")
	assert.FileExists(t, db)

	out, err = execute(t, "history", "--config-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "WHM")
	assert.Contains(t, out, "60s")
}

func TestRunCommandJSON(t *testing.T) {
	dir, _ := writeTestConfig(t, "whm-standard.yaml")

	out, err := execute(t, "run", "--config-dir", dir, "--format", "json", "--script-only", "--log", "--no-save")
	require.NoError(t, err)

	var resp struct {
		Status string    `json:"status"`
		Data   RunResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "WHM", resp.Data.Job)
	require.Len(t, resp.Data.Runs, 1)
	assert.Equal(t, "Scripted priority", resp.Data.Best)
	assert.Greater(t, resp.Data.BestDPS, 0.0)
	assert.Contains(t, resp.Data.CombatLog, "Glare III")
	assert.Empty(t, resp.Data.Archived)
}

func TestRunCommandBadConfig(t *testing.T) {
	out, err := execute(t, "run", "--config-dir", t.TempDir(), "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, ErrCodeConfig, resp.Error.Code)
}

func TestRunCommandScriptOnlyWithoutScript(t *testing.T) {
	dir, _ := writeTestConfig(t, `""`)
	_, err := execute(t, "run", "--config-dir", dir, "--script-only", "--no-save")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestValidateCommand(t *testing.T) {
	path := filepath.Join("..", "..", "configs", "rotations", "whm-standard.yaml")

	out, err := execute(t, "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Rotation 'Scripted priority' validated for WHM")

	out, err = execute(t, "validate", path, "--format", "json")
	require.NoError(t, err)
	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.True(t, resp.Data.Valid)
	assert.Equal(t, 1, resp.Data.Prepull)
	assert.Equal(t, 6, resp.Data.Actions)
}

func TestValidateCommandRejects(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
		return p
	}
	unknown := write("unknown.yaml", "name: Bad\njob: WHM\nrotation:\n  - action: use\n    ability: Holy\n")
	noJob := write("nojob.yaml", "name: Jobless\nrotation:\n  - action: use\n    ability: Glare III\n")
	otherJob := write("sch.yaml", "name: Other\njob: SCH\nrotation:\n  - action: use\n    ability: Broil IV\n")

	out, err := execute(t, "validate", unknown)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Rotation 'Bad' is invalid")

	_, err = execute(t, "validate", noJob)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = execute(t, "validate", noJob, "--job", "whm")
	assert.NoError(t, err)

	_, err = execute(t, "validate", otherJob)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = execute(t, "validate", filepath.Join(dir, "missing.yaml"))
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestWeightsSweepStdout(t *testing.T) {
	dir, _ := writeTestConfig(t, "whm-standard.yaml")

	out, err := execute(t, "weights", "--config-dir", dir, "--stat", "crit",
		"--start", "0", "--stop", "1", "--step", "0.5", "--output-dir", "-")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "stat_offset,dps,dps_per_point", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "0.0000,"))
	assert.True(t, strings.HasPrefix(lines[3], "1.0000,"))
}

func TestWeightsSweepFile(t *testing.T) {
	dir, _ := writeTestConfig(t, "")
	outDir := filepath.Join(t.TempDir(), "curves")

	out, err := execute(t, "weights", "--config-dir", dir, "--stat", "det",
		"--start", "-1", "--stop", "1", "--step", "1", "--output-dir", outDir)
	require.NoError(t, err)
	assert.Contains(t, out, "3 points written to")
	assert.FileExists(t, filepath.Join(outDir, "WHM_det.csv"))
}

func TestWeightsCommandBadStat(t *testing.T) {
	_, err := execute(t, "weights", "--stat", "piety", "--output-dir", "-")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestWeightsCommand(t *testing.T) {
	dir, _ := writeTestConfig(t, "")

	out, err := execute(t, "weights", "--config-dir", dir, "--format", "json")
	require.NoError(t, err)
	var resp struct {
		Data struct {
			Rotation string `json:"rotation"`
			Weights  []struct {
				Stat   string  `json:"stat"`
				Weight float64 `json:"weight"`
			} `json:"weights"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data.Weights, 5)
	assert.NotEmpty(t, resp.Data.Rotation)
	for _, w := range resp.Data.Weights {
		assert.GreaterOrEqual(t, w.Weight, 0.0, w.Stat)
	}
	assert.Greater(t, resp.Data.Weights[0].Weight, 0.0)
}

func TestHistoryCommand(t *testing.T) {
	dir, db := writeTestConfig(t, "")

	_, err := execute(t, "history", "--config-dir", dir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	out, err := execute(t, "run", "--config-dir", dir, "--format", "json")
	require.NoError(t, err)
	var run struct {
		Data RunResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &run))
	assert.Equal(t, db, run.Data.Archived)

	out, err = execute(t, "history", "--db", db, "--format", "json")
	require.NoError(t, err)
	var list struct {
		Data []HistoryEntry `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	require.Len(t, list.Data, 1)
	assert.Equal(t, run.Data.ID, list.Data[0].ID)
	assert.Equal(t, run.Data.Best, list.Data[0].Best)

	out, err = execute(t, "history", run.Data.ID, "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Simulation "+run.Data.ID)
	assert.Contains(t, out, "Standard")

	_, err = execute(t, "history", "no-such-id", "--db", db)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestJobsCommand(t *testing.T) {
	out, err := execute(t, "jobs", "--abilities")
	require.NoError(t, err)
	assert.Contains(t, out, "WHM: 2 rotation(s)")
	assert.Contains(t, out, "Afflatus Misery")
	assert.Contains(t, out, "Chain Stratagem")

	out, err = execute(t, "jobs", "--format", "json")
	require.NoError(t, err)
	var resp struct {
		Data JobsListing `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data.Jobs, 1)
	assert.Empty(t, resp.Data.Jobs[0].Abilities)
	assert.Len(t, resp.Data.PartyBuffs, 12)
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad")))

	wrapped := WrapExitError(ExitFailure, "outer", os.ErrNotExist)
	assert.ErrorIs(t, wrapped, os.ErrNotExist)
	assert.Equal(t, "outer: file does not exist", wrapped.Error())
}

func TestOutputFormatterError(t *testing.T) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	f := &OutputFormatter{Format: "text", Writer: out, ErrWriter: errOut}
	require.NoError(t, f.Error(ErrCodeStore, "boom", nil))
	assert.Empty(t, out.String())
	assert.Equal(t, "Error [E005]: boom\n", errOut.String())

	f.Format = "json"
	require.NoError(t, f.Error(ErrCodeStore, "boom", nil))
	var resp CLIResponse
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "boom", resp.Error.Message)
}
