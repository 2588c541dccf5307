package config

import (
	"testing"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/stretchr/testify/assert"
)

func TestValidateConfig(t *testing.T) {
	log := logger.New("config_test")

	valid := Config{ServerPort: 8080, JWTSecret: "secret", CleaningExpiryHours: 12}

	tests := []struct {
		name      string
		mutate    func(c *Config)
		expectErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}, expectErr: false},
		{name: "zero port", mutate: func(c *Config) { c.ServerPort = 0 }, expectErr: true},
		{name: "missing jwt secret", mutate: func(c *Config) { c.JWTSecret = "" }, expectErr: true},
		{name: "non positive expiry", mutate: func(c *Config) { c.CleaningExpiryHours = 0 }, expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := validateConfig(cfg, log)
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, cfg, GetConfig())
			}
		})
	}
}
