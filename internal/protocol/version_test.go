package protocol

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIncrementVersion(t *testing.T) {
	tests := []struct {
		name          string
		version       string
		incrementType string
		want          string
	}{
		{"patch", "0.1.1", IncrementPatch, "0.1.2"},
		{"minor resets patch", "1.2.3", IncrementMinor, "1.3.0"},
		{"major resets minor and patch", "1.2.3", IncrementMajor, "2.0.0"},
		{"unknown type defaults to patch", "1.2.3", "release", "1.2.4"},
		{"v prefix stripped", "v1.2.3", IncrementPatch, "1.2.4"},
		{"missing components count as zero", "1.2", IncrementPatch, "1.2.1"},
		{"invalid version falls back", "not-a-version", IncrementPatch, "0.1.1"},
		{"empty version falls back", "", IncrementPatch, "0.1.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IncrementVersion(tt.version, tt.incrementType))
		})
	}
}

func TestExtractVersionFromProtocol(t *testing.T) {
	tests := []struct {
		name     string
		protocol Protocol
		want     string
		wantOK   bool
	}{
		{
			name:     "plain version",
			protocol: Protocol{"metadata": map[string]any{"version": "1.2.3"}},
			want:     "1.2.3",
			wantOK:   true,
		},
		{
			name:     "v prefix stripped",
			protocol: Protocol{"metadata": map[string]any{"version": "v0.1.1"}},
			want:     "0.1.1",
			wantOK:   true,
		},
		{
			name:     "two components rejected",
			protocol: Protocol{"metadata": map[string]any{"version": "1.2"}},
		},
		{
			name:     "non-numeric rejected",
			protocol: Protocol{"metadata": map[string]any{"version": "1.2.x"}},
		},
		{
			name:     "non-string rejected",
			protocol: Protocol{"metadata": map[string]any{"version": 1.23}},
		},
		{
			name:     "no metadata",
			protocol: Protocol{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractVersionFromProtocol(tt.protocol)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractVersionFromFilename(t *testing.T) {
	got, ok := ExtractVersionFromFilename("amil_orl_v1.0.1_01-12-2025-1430")
	require.True(t, ok)
	assert.Equal(t, "1.0.1", got)

	got, ok = ExtractVersionFromFilename("protocolo_0.2.5_final")
	require.True(t, ok)
	assert.Equal(t, "0.2.5", got)

	_, ok = ExtractVersionFromFilename("protocolo_sem_versao")
	assert.False(t, ok)
}

func TestDaktusTimestamp(t *testing.T) {
	ts := time.Date(2025, 12, 1, 14, 30, 0, 0, time.UTC)
	assert.Equal(t, "01-12-2025-1430", DaktusTimestamp(ts))
}

func TestGenerateOutputFilename(t *testing.T) {
	now := time.Date(2025, 12, 1, 14, 30, 0, 0, time.UTC)

	t.Run("version from metadata", func(t *testing.T) {
		p := Protocol{"metadata": map[string]any{
			"company": "amil",
			"name":    "orl",
			"version": "1.0.0",
		}}

		filename, newVersion := GenerateOutputFilename(p, "protocols/amil_orl.json", now)
		assert.Equal(t, "1.0.1", newVersion)
		assert.Equal(t, "amil_orl_v1.0.1_01-12-2025-1430.json", filename)
	})

	t.Run("version from filename", func(t *testing.T) {
		p := Protocol{"metadata": map[string]any{"company": "amil", "name": "orl"}}

		filename, newVersion := GenerateOutputFilename(p, "protocols/amil_orl_v2.1.0_01-11-2025-0900.json", now)
		assert.Equal(t, "2.1.1", newVersion)
		assert.Equal(t, "amil_orl_v2.1.1_01-12-2025-1430.json", filename)
	})

	t.Run("fallback version and metadata defaults", func(t *testing.T) {
		filename, newVersion := GenerateOutputFilename(Protocol{}, "protocols/novo.json", now)
		assert.Equal(t, "0.1.2", newVersion)
		assert.Regexp(t, `^unknown_protocol_v0\.1\.2_\d{2}-\d{2}-\d{4}-\d{4}\.json$`, filename)
	})
}

func TestUpdateProtocolVersion(t *testing.T) {
	p := Protocol{"metadata": map[string]any{"version": "1.0.0", "company": "amil"}}
	UpdateProtocolVersion(p, "1.0.1")
	assert.Equal(t, "1.0.1", p.Metadata()["version"])
	assert.Equal(t, "amil", p.Metadata()["company"])

	empty := Protocol{}
	UpdateProtocolVersion(empty, "0.1.2")
	assert.Equal(t, "0.1.2", empty.Metadata()["version"])
}
