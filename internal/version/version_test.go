package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildInfo(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}
	if BuildTime == "" {
		t.Error("BuildTime should be initialized")
	}
	if GitCommit == "" {
		t.Error("GitCommit should be initialized")
	}
}

func TestEncode(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"0.2.0", 200},
		{"v1.2.3", 10203},
		{"2.10.7-rc1", 21007},
		{"3", 30000},
		{"unknown", 0},
		{"1.x.4", 10004},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Encode(tt.in))
		})
	}
}
