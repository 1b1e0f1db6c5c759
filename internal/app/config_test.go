package app

import (
	"math"
	"testing"

	"github.com/taigrr/flycam/pkg/math3d"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() = %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"negative fps", func(c *Config) { c.FPS = -30 }},
		{"infinite eye", func(c *Config) { c.Eye.X = math.Inf(1) }},
		{"nan pitch", func(c *Config) { c.Pitch = math.NaN() }},
		{"nan yaw", func(c *Config) { c.Yaw = math.NaN() }},
		{"negative hold timeout", func(c *Config) { c.HoldTimeout = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() = nil")
			}
		})
	}
}

func TestStartPose(t *testing.T) {
	tests := []struct {
		name       string
		pitch, yaw float64
		forward    math3d.Vec3
	}{
		{"level", 0, 0, math3d.V3(0, 0, -1)},
		{"yaw left", 0, 90, math3d.V3(-1, 0, 0)},
		{"yaw right", 0, -90, math3d.V3(1, 0, 0)},
		{"look up", 90, 0, math3d.V3(0, 1, 0)},
		// Pitch is applied in the yawed frame.
		{"yaw then pitch", 45, 90, math3d.V3(-math.Sqrt(0.5), math.Sqrt(0.5), 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Pitch, cfg.Yaw = tt.pitch, tt.yaw
			p, err := cfg.startPose()
			if err != nil {
				t.Fatal(err)
			}
			if f := p.Forward(); f.Sub(tt.forward).Len() > 1e-9 {
				t.Errorf("forward = %v, want %v", f, tt.forward)
			}
			if p.Position != cfg.Eye {
				t.Errorf("position = %v, want %v", p.Position, cfg.Eye)
			}
		})
	}
}
