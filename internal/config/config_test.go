package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestValidateReportsEveryField(t *testing.T) {
	cfg := Default()
	cfg.Listen = "not an address"
	cfg.Concurrency = 0
	cfg.LogLevel = "loud"
	cfg.Detector.StructuringFloor = decimal.Zero

	err := cfg.Validate()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "listen")
	assert.Contains(t, msg, "concurrency")
	assert.Contains(t, msg, "log_level")
	assert.Contains(t, msg, "structuring_floor")
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`listen: "127.0.0.1:9090"
concurrency: 8
detector:
  mule_lookahead: 20
  mule_window: 2h
  structuring_floor: "2000"
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9090", cfg.Listen)
	assert.Equal(t, 8, cfg.Concurrency)
	assert.Equal(t, 20, cfg.Detector.MuleLookahead)
	assert.Equal(t, 2*time.Hour, cfg.Detector.MuleWindow)
	assert.True(t, cfg.Detector.StructuringFloor.Equal(decimal.NewFromInt(2000)))
	// untouched fields keep their defaults
	assert.Equal(t, 20, cfg.BodyLimitMB)
	assert.Equal(t, 5, cfg.Detector.StructuringCount)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("concurrency: 0\n"), 0o600))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestValidatorRegistersDecimalGreaterThan(t *testing.T) {
	type limits struct {
		Floor decimal.Decimal `yaml:"floor" validate:"decimalGreaterThan=10"`
	}

	var v *validator.Validate
	require.NotPanics(t, func() { v = newValidator() })

	assert.NoError(t, v.Struct(limits{Floor: decimal.NewFromInt(11)}))
	err := v.Struct(limits{Floor: decimal.NewFromInt(10)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decimalGreaterThan")
}
