//go:build unit
// +build unit

package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/stretchr/testify/assert"
)

type dummySetting struct {
	Gain float64 `toml:"gain"`
}

func TestRegisterAndGetComponentSetting(t *testing.T) {
	ResetSetting()
	RegisterSetting("dummy", dummySetting{Gain: 0.25})

	s, ok := GetComponentSetting("dummy")
	assert.True(t, ok)
	assert.Equal(t, dummySetting{Gain: 0.25}, s.(dummySetting))

	_, ok = GetComponentSetting("missing")
	assert.False(t, ok)
}

func TestParseSettingFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "setting.toml")
	content := heredoc.Doc(`
	  [com.spsa]
	  a = 0.5
	  c = 0.2
	  check_window = 7
	`)
	assert.Nil(t, os.WriteFile(path, []byte(content), 0o644))

	ResetSetting()
	assert.Nil(t, ParseSettingFromPath(path))

	s, ok := GetComponentSetting("spsa")
	assert.True(t, ok)
	mapped, ok := s.(map[string]interface{})
	assert.True(t, ok)
	assert.Equal(t, 0.5, mapped["a"])
	assert.Equal(t, 0.2, mapped["c"])
	assert.Equal(t, int64(7), mapped["check_window"])
}

func TestParseSettingFromMissingPath(t *testing.T) {
	ResetSetting()
	assert.Error(t, ParseSettingFromPath(filepath.Join(t.TempDir(), "nope.toml")))
}
