// Package conf provides the sound level meter's viper-backed configuration:
// defaults for every option in the meter's configuration table, plus
// per-sensor overrides, loadable from a YAML file or environment variables.
package conf

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/ambiosense/soundmeter/internal/slerrors"
)

// FilterSettings describes one biquad section in a sensor's filter chain.
type FilterSettings struct {
	Type   string  `mapstructure:"type" yaml:"type"` // lowpass, highpass, bandpass, peaking, lowshelf, highshelf
	Freq   float64 `mapstructure:"freq" yaml:"freq"`
	Q      float64 `mapstructure:"q" yaml:"q"`
	GainDB float64 `mapstructure:"gain_db" yaml:"gain_db"`
	Passes int     `mapstructure:"passes" yaml:"passes"`
}

// SensorSettings describes one statistical accumulator.
type SensorSettings struct {
	Name           string           `mapstructure:"name" yaml:"name"`
	Type           string           `mapstructure:"type" yaml:"type"` // eq, max, min, peak
	UpdateInterval int              `mapstructure:"update_interval_ms" yaml:"update_interval_ms"`
	WindowMs       int              `mapstructure:"window_ms" yaml:"window_ms"`
	IsHighFreq     bool             `mapstructure:"is_high_freq" yaml:"is_high_freq"`
	Filters        []FilterSettings `mapstructure:"filters" yaml:"filters"`
}

// Settings is the full configuration surface, so the CLI's flags and a
// YAML file can both populate it through the same viper instance.
type Settings struct {
	SampleRate       float64          `mapstructure:"sample_rate" yaml:"sample_rate"`
	SampleWidth      int              `mapstructure:"sample_width" yaml:"sample_width"`
	UpdateIntervalMs int              `mapstructure:"update_interval_ms" yaml:"update_interval_ms"`
	RingBufferMs     int              `mapstructure:"ring_buffer_size_ms" yaml:"ring_buffer_size_ms"`
	WarmupIntervalMs int              `mapstructure:"warmup_interval_ms" yaml:"warmup_interval_ms"`
	TaskStackSize    int              `mapstructure:"task_stack_size" yaml:"task_stack_size"`
	TaskPriority     string           `mapstructure:"task_priority" yaml:"task_priority"`
	TaskCore         int              `mapstructure:"task_core" yaml:"task_core"`
	PinAffinity      bool             `mapstructure:"pin_affinity" yaml:"pin_affinity"`
	MicSensitivity   float64          `mapstructure:"mic_sensitivity" yaml:"mic_sensitivity"`
	HasMicSens       bool             `mapstructure:"-" yaml:"-"`
	MicSensitivityRef float64         `mapstructure:"mic_sensitivity_ref" yaml:"mic_sensitivity_ref"`
	Offset           float64          `mapstructure:"offset" yaml:"offset"`
	HasOffset        bool             `mapstructure:"-" yaml:"-"`
	IsAutoStart      bool             `mapstructure:"is_auto_start" yaml:"is_auto_start"`
	Sensors          []SensorSettings `mapstructure:"sensors" yaml:"sensors"`
}

// setDefaults registers every option's default with v, mirroring the
// teacher's own viper.SetDefault-per-option pattern.
func setDefaults(v *viper.Viper) {
	v.SetDefault("sample_rate", 48000.0)
	v.SetDefault("sample_width", 2)
	v.SetDefault("update_interval_ms", 60000)
	v.SetDefault("ring_buffer_size_ms", 200)
	v.SetDefault("warmup_interval_ms", 500)
	v.SetDefault("task_stack_size", 4096)
	v.SetDefault("task_priority", "normal")
	v.SetDefault("task_core", -1)
	v.SetDefault("pin_affinity", true)
	v.SetDefault("mic_sensitivity", 0.0)
	v.SetDefault("mic_sensitivity_ref", 0.0)
	v.SetDefault("offset", 0.0)
	v.SetDefault("is_auto_start", true)
}

// New builds a viper instance with defaults registered, environment
// variable binding (SOUNDMETER_*), and YAML support for a config file.
func New() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("soundmeter")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// Load reads settings from v (after any file/flag binding the caller has
// already done) into a Settings struct, and derives the Has* flags from
// whether their keys were explicitly set.
func Load(v *viper.Viper) (*Settings, error) {
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, slerrors.Newf("decoding configuration: %w", err).
			Component("conf").
			Category(slerrors.CategoryConfiguration).
			Build()
	}
	s.HasOffset = v.IsSet("offset")
	s.HasMicSens = v.IsSet("mic_sensitivity") && v.IsSet("mic_sensitivity_ref")
	return &s, nil
}

// LoadFile reads YAML settings from path, falling back to defaults for any
// key the file does not set.
func LoadFile(path string) (*Settings, error) {
	v := New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, slerrors.Newf("reading config file %s: %w", path, err).
			Component("conf").
			Category(slerrors.CategoryConfiguration).
			Build()
	}
	return Load(v)
}
