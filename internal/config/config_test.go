package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/stylescope/internal/domain"
)

func writeUniverse(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "universe.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const validUniverse = `
factors:
  - { name: US Growth, ticker: VUG }
  - { name: US Value, ticker: VTV }
instruments:
  - VTSAX
  - FCNTX
start_date: "2012-01-01"
end_date: "2023-02-28"
frequency: monthly
`

func TestLoadUniverse(t *testing.T) {
	u, err := LoadUniverse(writeUniverse(t, validUniverse))
	require.NoError(t, err)

	assert.Equal(t, []string{"US Growth", "US Value"}, u.Factors.Names())
	assert.Equal(t, []string{"VTSAX", "FCNTX"}, u.Instruments)

	start, err := u.Start()
	require.NoError(t, err)
	assert.Equal(t, 2012, start.Year())

	freq, err := u.ReturnFrequency()
	require.NoError(t, err)
	assert.Equal(t, domain.FrequencyMonthly, freq)
}

func TestLoadUniverse_MissingFile(t *testing.T) {
	_, err := LoadUniverse(filepath.Join(t.TempDir(), "nope.yml"))
	require.Error(t, err)
}

func TestLoadUniverse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "reserved factor name",
			content: `
factors:
  - { name: const, ticker: VUG }
instruments: [VTSAX]
start_date: "2012-01-01"
end_date: "2023-02-28"
frequency: monthly
`,
		},
		{
			name: "duplicate factor names",
			content: `
factors:
  - { name: Growth, ticker: VUG }
  - { name: Growth, ticker: VTV }
instruments: [VTSAX]
start_date: "2012-01-01"
end_date: "2023-02-28"
frequency: monthly
`,
		},
		{
			name: "no instruments",
			content: `
factors:
  - { name: Growth, ticker: VUG }
instruments: []
start_date: "2012-01-01"
end_date: "2023-02-28"
frequency: monthly
`,
		},
		{
			name: "bad date",
			content: `
factors:
  - { name: Growth, ticker: VUG }
instruments: [VTSAX]
start_date: "01/01/2012"
end_date: "2023-02-28"
frequency: monthly
`,
		},
		{
			name: "bad frequency",
			content: `
factors:
  - { name: Growth, ticker: VUG }
instruments: [VTSAX]
start_date: "2012-01-01"
end_date: "2023-02-28"
frequency: weekly
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadUniverse(writeUniverse(t, tt.content))
			require.Error(t, err)
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STYLESCOPE_DATA_DIR", t.TempDir())
	t.Setenv("PORT", "")
	t.Setenv("LOG_LEVEL", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8010, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "universe.yml", cfg.UniverseFile)
	assert.True(t, filepath.IsAbs(cfg.DataDir))
	assert.DirExists(t, cfg.DataDir)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STYLESCOPE_DATA_DIR", t.TempDir())
	t.Setenv("PORT", "9000")
	t.Setenv("DEV_MODE", "true")
	t.Setenv("ANALYSIS_SCHEDULE", "0 0 7 * * MON-FRI")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.True(t, cfg.DevMode)
	assert.Equal(t, "0 0 7 * * MON-FRI", cfg.AnalysisSchedule)
}
