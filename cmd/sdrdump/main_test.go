package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

const fixture = "../../bmcsim/testdata/repository.yaml"

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestList(t *testing.T) {
	out, err := run(t, "--fixture", fixture, "list")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	for _, s := range []string{"CPU Temp", "Temperature", "45.00", "degrees C", "| ok "} {
		assert.Contains(t, lines[0], s)
	}
	for _, s := range []string{"PS1", "Power Supply", "0x00", "discrete", "n/a"} {
		assert.Contains(t, lines[1], s)
	}
}

func TestGet(t *testing.T) {
	out, err := run(t, "--fixture", fixture, "get", "0x0003")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "FRU Device Locator 0x0003 (next 0x0004)"), out)
	assert.Contains(t, out, "FRU0")

	_, err = run(t, "--fixture", fixture, "get", "5")
	assert.ErrorContains(t, err, "Unsupported SDR type(0x13)")

	_, err = run(t, "--fixture", fixture, "get", "record")
	assert.Error(t, err)
}

func TestReading(t *testing.T) {
	out, err := run(t, "--fixture", fixture, "reading", "1")
	require.NoError(t, err)
	assert.Equal(t, "sensor 0x01: reading 0x2d, states 0x0000\n", out)

	out, err = run(t, "--fixture", fixture, "reading", "3")
	require.NoError(t, err)
	assert.Equal(t, "sensor 0x03: reading n/a, states n/a\n", out)
}

func TestSetThresholds(t *testing.T) {
	out, err := run(t, "--fixture", fixture, "set-thresholds", "1", "--unr", "95", "--lnc", "12")
	require.NoError(t, err)
	assert.Equal(t, "thresholds of \"CPU Temp\" updated\n", out)

	_, err = run(t, "--fixture", fixture, "set-thresholds", "2", "--unr", "95")
	assert.ErrorContains(t, err, "Compact Sensor record")

	_, err = run(t, "--fixture", fixture, "set-thresholds", "1", "--unr", "300")
	assert.Error(t, err)
}

func TestMissingFixture(t *testing.T) {
	_, err := run(t, "list")
	assert.ErrorContains(t, err, "no simulator fixture")
}

func TestConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sdrdump.yaml")
	data := "fixture: " + fixture + "\n" +
		"header_attempts: 3\n" +
		"read_bytes: 16\n" +
		"backoff_unit: 10ms\n" +
		"request_rate: 1000\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	args := cfg.arguments()
	assert.Equal(t, 3, args.HeaderAttempts)
	assert.Equal(t, uint8(16), args.ReadBytes)
	assert.Equal(t, 10*time.Millisecond, args.BackoffUnit)
	assert.Equal(t, rate.Limit(1000), args.RequestRate)

	out, err := run(t, "--config", path, "reading", "2")
	require.NoError(t, err)
	assert.Equal(t, "sensor 0x02: reading 0x00, states 0x0001\n", out)

	_, err = loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
