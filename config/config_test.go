package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	cfg := DefaultConfig(dir)
	cfg.Genesis.PrivateKey = "0x01"
	cfg.Scenarios.ResolveDelegatedCode = true
	require.NoError(t, cfg.Save(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestDefaultDurations(t *testing.T) {
	d := DefaultConfig(t.TempDir()).Dispatch

	timeout, err := d.ReceiptTimeoutDuration()
	require.NoError(t, err)
	assert.Equal(t, time.Second, timeout)

	poll, err := d.PollIntervalDuration()
	require.NoError(t, err)
	assert.Equal(t, 500*time.Millisecond, poll)

	fund, err := d.FundTimeoutDuration()
	require.NoError(t, err)
	assert.Equal(t, 120*time.Second, fund)
	assert.Equal(t, 4, d.ExtraBlocks)
}

func TestDurationParsing(t *testing.T) {
	d := DispatchConfig{}
	timeout, err := d.ReceiptTimeoutDuration()
	require.NoError(t, err)
	assert.Zero(t, timeout)

	d.PollInterval = "soon"
	_, err = d.PollIntervalDuration()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dispatch.poll_interval")
}

func TestLoadConfigPartialFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[node]\nrpc_url = \"http://node:12537\"\n\n[verify]\nshort_code_threshold = 64\n"), 0600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "http://node:12537", cfg.Node.RPCURL)
	assert.Equal(t, 64, cfg.Verify.ShortCodeThreshold)

	def := DefaultConfig(dir)
	assert.Equal(t, def.Chain, cfg.Chain)
	assert.Equal(t, def.Dispatch, cfg.Dispatch)
	assert.Equal(t, def.Database.HistoryPath, cfg.Database.HistoryPath)
	assert.Equal(t, def.Log, cfg.Log)
}

func TestLoadConfigMissingDispatchKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[dispatch]\nreceipt_timeout = \"3s\"\n"), 0600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	timeout, err := cfg.Dispatch.ReceiptTimeoutDuration()
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, timeout)
	poll, err := cfg.Dispatch.PollIntervalDuration()
	require.NoError(t, err)
	assert.Equal(t, 500*time.Millisecond, poll)
	assert.Equal(t, 4, cfg.Dispatch.ExtraBlocks)
}

func TestLoadConfigMissing(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}
