package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRuntimeConfigIntervals(t *testing.T) {
	tests := []struct {
		name          string
		cfg           RuntimeConfig
		wantDiscovery time.Duration
		wantRefresh   time.Duration
	}{
		{
			name:          "defaults",
			cfg:           RuntimeConfig{BaseInterval: time.Second, DiscoveryEvery: 30, BlockTime: 12},
			wantDiscovery: 30 * time.Second,
			wantRefresh:   12 * time.Second,
		},
		{
			name:          "zero multipliers fall back to base",
			cfg:           RuntimeConfig{BaseInterval: 500 * time.Millisecond},
			wantDiscovery: 500 * time.Millisecond,
			wantRefresh:   500 * time.Millisecond,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantDiscovery, tt.cfg.DiscoveryInterval())
			assert.Equal(t, tt.wantRefresh, tt.cfg.BlockRefreshInterval())
		})
	}
}
