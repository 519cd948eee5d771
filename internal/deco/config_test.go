package deco

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultModelConfig_IsValid(t *testing.T) {
	cfg := DefaultModelConfig()
	require.NoError(t, cfg.Validate())
	assert.Len(t, cfg.Compartments, 16)
	assert.Equal(t, "ZHL-16C/GF", cfg.Name)
}

func TestModelConfig_ValidateRejectsBrokenTables(t *testing.T) {
	cfg := DefaultModelConfig()
	cfg.Compartments = nil
	assert.Error(t, cfg.Validate())

	cfg = DefaultModelConfig()
	cfg.Compartments[3].HalfTimeHe = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultModelConfig()
	cfg.StopIncrement = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultModelConfig()
	cfg.MaxPpO2Deco = 1.0 // below the bottom limit
	assert.Error(t, cfg.Validate())
}

func TestLoadModelConfig_OverridesTuning(t *testing.T) {
	t.Cleanup(func() {
		require.NoError(t, SetModelConfig(DefaultModelConfig()))
	})

	path := filepath.Join(t.TempDir(), "model.yaml")
	body := []byte("name: ZHL-16C/GF test\nstop_increment: 6\ngf_low_default: 40\ngf_high_default: 70\n")
	require.NoError(t, os.WriteFile(path, body, 0o644))

	require.NoError(t, LoadModelConfig(path))

	cfg := ActiveModelConfig()
	assert.Equal(t, "ZHL-16C/GF test", cfg.Name)
	assert.Equal(t, 6.0, cfg.StopIncrement)
	assert.Equal(t, 40.0, cfg.GFLowDefault)

	// Fields absent from the file keep their defaults, including the
	// full compartment table.
	assert.Len(t, cfg.Compartments, 16)
	assert.Equal(t, 20.0, cfg.SACBottom)
}

func TestLoadModelConfig_RejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.yaml")
	require.NoError(t, os.WriteFile(path, []byte("stop_increment: -3\n"), 0o644))

	assert.Error(t, LoadModelConfig(path))
	assert.Error(t, LoadModelConfig(filepath.Join(t.TempDir(), "missing.yaml")))

	// The active configuration is untouched by a failed load.
	assert.Equal(t, 3.0, ActiveModelConfig().StopIncrement)
}

func TestActiveModelConfig_ReturnsACopy(t *testing.T) {
	cfg := ActiveModelConfig()
	cfg.Compartments[0].HalfTimeN2 = 999

	assert.Equal(t, 5.0, ActiveModelConfig().Compartments[0].HalfTimeN2)
}
