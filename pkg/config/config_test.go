package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalConfig = `
service_name = "papertrading-engine"

[database]
dsn = "root:root@tcp(127.0.0.1:3306)/papertrading?parseTime=True"

[[instruments]]
symbol = "AAPL"
name = "Apple Inc."

[[investors]]
id = "inv-1"
name = "One"
persona = "momentum"
[investors.params]
entry_usd = "100000"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "papertrading-engine", cfg.ServiceName)
	assert.Equal(t, 60, cfg.Engine.FastIntervalSeconds)
	assert.Equal(t, 10, cfg.Engine.SlowIntervalMultiple)
	assert.Equal(t, "1000000", cfg.Engine.InitialCapital)
	assert.Equal(t, "100", cfg.Engine.MinTradeNotional)
	assert.Equal(t, 7, cfg.Engine.CandleWindowDays)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, "info", cfg.Logger.Level)

	require.Len(t, cfg.Investors, 1)
	assert.Equal(t, "momentum", cfg.Investors[0].Persona)
	assert.Equal(t, "100000", cfg.Investors[0].Params["entry_usd"])
}

func TestLoadFailsWithoutInvestors(t *testing.T) {
	content := `
service_name = "papertrading-engine"

[database]
dsn = "root:root@tcp(127.0.0.1:3306)/papertrading"

[[instruments]]
symbol = "AAPL"
`
	_, err := Load(writeConfig(t, content))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "investor catalog is empty")
}

func TestLoadFailsWithoutInstruments(t *testing.T) {
	content := `
service_name = "papertrading-engine"

[database]
dsn = "root:root@tcp(127.0.0.1:3306)/papertrading"

[[investors]]
id = "inv-1"
persona = "momentum"
`
	_, err := Load(writeConfig(t, content))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "instrument list is empty")
}

func TestLoadFailsOnDuplicateInvestor(t *testing.T) {
	content := minimalConfig + `
[[investors]]
id = "inv-1"
persona = "contrarian"
`
	_, err := Load(writeConfig(t, content))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate investor id")
}
