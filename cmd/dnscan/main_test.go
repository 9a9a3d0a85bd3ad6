package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/resistanceisuseless/dnscan/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestMissingWordlistAborts(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.txt")
	out, err := execute(t, "example.com", missing, "--no-color", "--no-banner")

	assert.ErrorIs(t, err, errAborted)
	assert.Contains(t, out, " - ERROR - Wordlist file '"+missing+"' not found.")
	assert.NotContains(t, out, "Zone-Transfer")
}

func TestArgumentsAreRequired(t *testing.T) {
	_, err := execute(t, "example.com")
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "dnscan "+Version)
}

func TestInitCommand(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	out, err := execute(t, "init")
	require.NoError(t, err)
	assert.Contains(t, out, config.DefaultPath())

	_, err = os.Stat(config.DefaultPath())
	assert.NoError(t, err)
}

func TestFlagsOverrideConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
scan:
  mode: recon
  threads: 7
  record_types: [MX]
resolvers:
  servers: ["9.9.9.9"]
`), 0644))

	cmd := newRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{"-c", path, "--threads", "3", "--flags", "a,txt"}))
	f := &Flags{}
	f.Config, _ = cmd.Flags().GetString("config")
	f.Threads, _ = cmd.Flags().GetInt("threads")
	f.Types, _ = cmd.Flags().GetStringSlice("flags")

	cfg, err := loadConfig(cmd, f, "Example.com")
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Scan.Threads)
	assert.Equal(t, "recon", cfg.Scan.Mode)
	assert.Equal(t, []string{"a", "txt"}, cfg.Scan.RecordTypes)
	assert.Equal(t, []string{"9.9.9.9"}, cfg.Resolvers.Servers)

	s, err := buildScan(cfg, []string{"www"})
	require.NoError(t, err)
	assert.Equal(t, "example.com", s.Host())
	assert.Equal(t, config.ModeRecon, s.Mode())
	assert.Equal(t, []string{"A", "TXT"}, s.Selector().Types())
}

func TestRecordTypeFlagForms(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"comma list", []string{"--flags", "A,MX,TXT"}, []string{"A", "MX", "TXT"}},
		{"repeated flag", []string{"--flags", "A", "--flags", "MX", "--flags", "TXT"}, []string{"A", "MX", "TXT"}},
		{"mixed", []string{"--flags", "a,mx", "--flags", "txt"}, []string{"A", "MX", "TXT"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newRootCmd()
			require.NoError(t, cmd.ParseFlags(tt.args))
			types, err := cmd.Flags().GetStringSlice("flags")
			require.NoError(t, err)

			selector, err := config.ParseSelector(types)
			require.NoError(t, err)
			assert.Equal(t, tt.want, selector.Types())
		})
	}
}

func TestSpaceSeparatedRecordTypesAreRejected(t *testing.T) {
	_, err := execute(t, "example.com", "words.txt", "--flags", "A", "MX", "TXT")
	assert.Error(t, err)
}

func TestBuildScanRejectsBadInput(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Target.Domain = "example.com"

	cfg.Scan.Mode = "everything"
	_, err = buildScan(cfg, nil)
	assert.Error(t, err)

	cfg.Scan.Mode = "all"
	cfg.Scan.Threads = 0
	_, err = buildScan(cfg, nil)
	assert.Error(t, err)
}
