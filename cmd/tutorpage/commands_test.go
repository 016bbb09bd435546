package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tutorpage/internal/config"
	appLog "tutorpage/internal/log"
)

func TestRootCmd_DebugVersion(t *testing.T) {
	t.Cleanup(func() {
		debug = false
		appLog.SetLevel(appLog.LevelInfo)
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "tutorpage.yaml"), "--debug", "version"})

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "tutorpage "+version)
	assert.True(t, debug)
	assert.True(t, appLog.Enabled(appLog.LevelDebug))
}

func TestLocalURL(t *testing.T) {
	assert.Equal(t, "http://127.0.0.1:8080", localURL("0.0.0.0:8080"))
	assert.Equal(t, "http://127.0.0.1:9000", localURL(":9000"))
	assert.Equal(t, "http://192.168.1.5:8080", localURL("192.168.1.5:8080"))
	assert.Equal(t, "http://127.0.0.1:8080", localURL("[::]:8080"))
}

func TestRenderWeekText(t *testing.T) {
	cal, err := renderWeek(config.DefaultConfig(), "2026-10-14")
	require.NoError(t, err)
	assert.Equal(t, "2026-10-12", cal.WeekStart.Format("2006-01-02"))

	var b strings.Builder
	require.NoError(t, writeText(&b, cal))
	out := b.String()

	assert.Contains(t, out, "Week of Mon Oct 12, 2026 (America/New_York), 8am to 8pm")
	assert.Contains(t, out, "Mon 10/12")
	assert.Contains(t, out, "5:30pm – 7:30pm")
	assert.Contains(t, out, "Office Hours (TETC111)")
	assert.Contains(t, out, "Sun 10/18  -")
}

func TestRenderWeek_BadWeek(t *testing.T) {
	_, err := renderWeek(config.DefaultConfig(), "next week")
	assert.Error(t, err)
}
