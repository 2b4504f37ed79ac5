package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type staticSource map[string]interface{}

func (s staticSource) GetValue(key string) interface{} { return s[key] }
func (s staticSource) Name() string                    { return "static" }

func TestLoadOverridesDefaults(t *testing.T) {
	m := NewConfigManager()
	strOpt := m.RegisterOption("test.str", "", "fallback")
	intOpt := m.RegisterOption("test.int", "", 5)
	missing := m.RegisterOption("test.missing", "", "kept")

	m.AddSource(staticSource{"test.str": "set", "test.int": "42"})
	m.Load()

	assert.Equal(t, "set", strOpt.GetString())
	assert.Equal(t, 42, intOpt.GetInt())
	assert.Equal(t, "kept", missing.GetString())
}

func TestBoolValuesParseCaseInsensitive(t *testing.T) {
	cases := []struct {
		raw  string
		want bool
	}{
		{"true", true},
		{"True", true},
		{"TRUE", true},
		{" yes ", true},
		{"on", true},
		{"1", true},
		{"false", false},
		{"0", false},
		{"", false},
	}

	for _, c := range cases {
		m := NewConfigManager()
		opt := m.RegisterOption("test.flag", "", false)
		m.AddSource(staticSource{"test.flag": c.raw})
		m.Load()

		assert.Equal(t, c.want, opt.GetBool(), "raw value %q", c.raw)
	}
}
