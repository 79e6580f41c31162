package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server        Server        `yaml:"server" json:"server"`
	Storage       Storage       `yaml:"storage" json:"storage"`
	Verification  Verification  `yaml:"verification" json:"verification"`
	Notifications Notifications `yaml:"notifications" json:"notifications"`
}

type Server struct {
	Addr string `yaml:"addr" json:"addr"`
}

type Storage struct {
	DataDir string `yaml:"data_dir" json:"data_dir"`
}

type Verification struct {
	// Seed pins the mocked services' random draws; 0 means time-seeded.
	Seed int64 `yaml:"seed" json:"seed"`

	// ResultDisplayMS is how long a terminal overlay state stays visible
	// before the success path auto-advances.
	ResultDisplayMS int `yaml:"result_display_ms" json:"result_display_ms"`

	Photo ServiceTuning `yaml:"photo" json:"photo"`
	Face  ServiceTuning `yaml:"face" json:"face"`
	QR    ServiceTuning `yaml:"qr" json:"qr"`
	Geo   ServiceTuning `yaml:"geo" json:"geo"`
}

type ServiceTuning struct {
	SuccessRate float64 `yaml:"success_rate" json:"success_rate"`
	MinDelayMS  int     `yaml:"min_delay_ms" json:"min_delay_ms"`
	MaxDelayMS  int     `yaml:"max_delay_ms" json:"max_delay_ms"`
}

type Notifications struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
}

func Default() *Config {
	c := &Config{}
	c.ApplyDefaults()
	return c
}

func (c *Config) ApplyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Storage.DataDir == "" {
		c.Storage.DataDir = "data"
	}
	if c.Verification.ResultDisplayMS <= 0 {
		c.Verification.ResultDisplayMS = 2000
	}
	applyServiceDefaults(&c.Verification.Photo, 0.8, 2000, 4000)
	applyServiceDefaults(&c.Verification.Face, 0.8, 2000, 4000)
	applyServiceDefaults(&c.Verification.QR, 1.0, 1000, 2000)
	applyServiceDefaults(&c.Verification.Geo, 1.0, 1500, 1500)
}

func applyServiceDefaults(s *ServiceTuning, rate float64, minMS, maxMS int) {
	if s.SuccessRate <= 0 || s.SuccessRate > 1 {
		s.SuccessRate = rate
	}
	if s.MinDelayMS <= 0 {
		s.MinDelayMS = minMS
	}
	if s.MaxDelayMS < s.MinDelayMS {
		s.MaxDelayMS = maxMS
	}
	if s.MaxDelayMS < s.MinDelayMS {
		s.MaxDelayMS = s.MinDelayMS
	}
}

// Load reads a YAML config file and applies defaults and environment
// overrides. A missing file is not an error; defaults apply.
func Load(path string) (*Config, error) {
	var c Config
	b, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	} else if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	c.ApplyDefaults()
	c.applyEnv()
	return &c, nil
}
