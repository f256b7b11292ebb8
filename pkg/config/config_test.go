package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meshseg/pkg/volume"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, volume.DefaultOutlierFraction, cfg.Sampling.OutlierFraction)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "meshseg.yaml")
	cfg := DefaultConfig()
	cfg.Processing.NumCores = 3
	cfg.Processing.ContrastFactor = -1
	cfg.Sampling.SuppressOutliers = false
	cfg.Output.STLFile = "out.stl"
	require.NoError(t, SaveConfig(cfg, path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	require.NoError(t, os.WriteFile(path, []byte("phantom:\n  radius: 6\n"), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 6.0, cfg.Phantom.Radius)
	assert.Equal(t, DefaultConfig().Phantom.Size, cfg.Phantom.Size)
	assert.True(t, cfg.Sampling.Normalize)
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"Contrast":  "processing:\n  contrastFactor: 2\n",
		"Fraction":  "sampling:\n  outlierFraction: 0\n",
		"Radius":    "phantom:\n  size: 10\n  radius: 5\n",
		"Syntax":    "processing: [",
		"Tolerance": "linalg:\n  pinvTolerance: -1\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.yaml")
			require.NoError(t, os.WriteFile(path, []byte(body), 0644))
			_, err := LoadConfig(path)
			require.Error(t, err)
		})
	}
}

func TestValidateWrapsErrInvalid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Phantom.Stacks = 1
	require.ErrorIs(t, cfg.Validate(), ErrInvalid)
}

func TestParams(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Processing.NumCores = 2
	cfg.Processing.WindowMax = 255
	cfg.Output.Verbose = false
	cfg.Output.STLFile = "surface.stl"

	p := cfg.Params()
	assert.Equal(t, 2, p.NumCores)
	assert.Equal(t, 255.0, p.OutputWindow.Max)
	assert.Zero(t, p.OutputWindow.Min)
	assert.Equal(t, "surface.stl", p.OutputFile)
	assert.False(t, p.Verbose)
	assert.Equal(t, cfg.Linalg.PinvTolerance, p.PinvTolerance)

	cfg.Processing.NumCores = 0
	assert.Positive(t, cfg.Params().NumCores)
}
