// Package meter implements the soundmeter CLI's "meter" subcommand,
// grounded on the teacher's cmd/realtime pattern: a cobra command that
// loads settings, wires a capture source and processing pipeline, and runs
// until interrupted.
package meter

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ambiosense/soundmeter/internal/biquad"
	"github.com/ambiosense/soundmeter/internal/conf"
	"github.com/ambiosense/soundmeter/internal/logging"
	malgosource "github.com/ambiosense/soundmeter/internal/micsource/malgo"
	"github.com/ambiosense/soundmeter/internal/metrics"
	"github.com/ambiosense/soundmeter/internal/slerrors"
	"github.com/ambiosense/soundmeter/internal/soundlevel"
)

var log = logging.ForComponent("cmd.meter")

// Command builds the "meter" subcommand.
func Command(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "meter",
		Short: "Run the sound level meter against a live microphone",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), v)
		},
	}
	if err := setupFlags(cmd, v); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
		os.Exit(1)
	}
	return cmd
}

func setupFlags(cmd *cobra.Command, v *viper.Viper) error {
	cmd.Flags().Float64("sample-rate", 48000, "capture sample rate in Hz")
	cmd.Flags().Int("device", -1, "capture device index (-1 = default)")
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("binding meter flags: %w", err)
	}
	if err := v.BindPFlag("sample_rate", cmd.Flags().Lookup("sample-rate")); err != nil {
		return fmt.Errorf("binding sample-rate flag: %w", err)
	}
	return nil
}

func run(parentCtx context.Context, v *viper.Viper) error {
	settings, err := loadSettings(v)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(reg)

	mic := malgosource.New(malgosource.Config{
		SampleRate:  uint32(settings.SampleRate),
		Channels:    1,
		DeviceIndex: v.GetInt("device"),
	})

	m := soundlevel.NewMeter(soundlevel.MeterConfig{
		SampleRate:  settings.SampleRate,
		SampleWidth: settings.SampleWidth,
		BufferMs:    20,
		RingMs:      settings.RingBufferMs,
		WarmupMs:    settings.WarmupIntervalMs,
		TaskCore:    settings.TaskCore,
		PinAffinity: settings.PinAffinity,
		Calibration: soundlevel.Calibration{
			Offset:            settings.Offset,
			HasOffset:         settings.HasOffset,
			MicSensitivity:    settings.MicSensitivity,
			MicSensitivityRef: settings.MicSensitivityRef,
			HasMicSensitivity: settings.HasMicSens,
		},
	}, mic)

	for _, ss := range settings.Sensors {
		sensor, err := buildSensor(ss, settings, recorder)
		if err != nil {
			return err
		}
		m.AddSensor(sensor)
	}

	ctx, cancel := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := m.Start(ctx); err != nil {
		return err
	}
	log.Info("meter started", "sample_rate", settings.SampleRate, "sensors", len(settings.Sensors))

	cpuMon := metrics.NewCPUMonitor(recorder, 5*time.Second)
	go cpuMon.Run(ctx)

	ticker := time.NewTicker(10 * time.Millisecond) // stands in for the host's ~100Hz main loop
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("shutting down")
			return m.Stop()
		case <-ticker.C:
			m.RunMainLoop(ctx)
			recorder.SetPublishQueueDepth(m.QueueDepth())
			recorder.SetRingBufferUtilization(m.RingBuffer().Utilization())
		}
	}
}

func loadSettings(v *viper.Viper) (*conf.Settings, error) {
	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, slerrors.Newf("reading config file %s: %w", path, err).
				Component("cmd.meter").
				Category(slerrors.CategoryConfiguration).
				Build()
		}
	}
	return conf.Load(v)
}

func buildSensor(ss conf.SensorSettings, settings *conf.Settings, recorder metrics.Recorder) (soundlevel.Sensor, error) {
	filters, err := buildFilters(ss.Filters, settings.SampleRate)
	if err != nil {
		return nil, err
	}

	publish := func(name string, db float64) {
		recorder.IncSensorPublish(name)
		log.Info("sound level", "sensor", name, "db", db)
	}

	interval := ss.UpdateInterval
	if interval <= 0 {
		interval = settings.UpdateIntervalMs
	}

	cfg := soundlevel.SensorConfig{
		Name:       ss.Name,
		SampleRate: settings.SampleRate,
		IntervalMs: interval,
		WindowMs:   ss.WindowMs,
		Filters:    filters,
		Publish:    publish,
	}

	switch ss.Type {
	case "eq":
		return soundlevel.NewEqSensor(cfg), nil
	case "max":
		return soundlevel.NewMaxSensor(cfg), nil
	case "min":
		return soundlevel.NewMinSensor(cfg), nil
	case "peak":
		return soundlevel.NewPeakSensor(cfg), nil
	default:
		return nil, slerrors.Newf("unknown sensor type %q", ss.Type).
			Component("cmd.meter").
			Category(slerrors.CategoryConfiguration).
			Build()
	}
}

func buildFilters(fs []conf.FilterSettings, sampleRate float64) ([]soundlevel.Filter, error) {
	filters := make([]soundlevel.Filter, 0, len(fs))
	for _, f := range fs {
		passes := f.Passes
		if passes < 1 {
			passes = 1
		}
		var bf *biquad.Filter
		var err error
		switch f.Type {
		case "lowpass":
			bf, err = biquad.NewLowPass(sampleRate, f.Freq, f.Q, passes)
		case "highpass":
			bf, err = biquad.NewHighPass(sampleRate, f.Freq, f.Q, passes)
		case "bandpass":
			bf, err = biquad.NewBandPass(sampleRate, f.Freq, f.Q, passes)
		case "peaking":
			bf, err = biquad.NewPeaking(sampleRate, f.Freq, f.Q, f.GainDB, passes)
		case "lowshelf":
			bf, err = biquad.NewLowShelf(sampleRate, f.Freq, f.Q, f.GainDB, passes)
		case "highshelf":
			bf, err = biquad.NewHighShelf(sampleRate, f.Freq, f.Q, f.GainDB, passes)
		default:
			err = slerrors.Newf("unknown filter type %q", f.Type).
				Component("cmd.meter").
				Category(slerrors.CategoryConfiguration).
				Build()
		}
		if err != nil {
			return nil, err
		}
		filters = append(filters, bf)
	}
	return filters, nil
}
