package numerator

import (
	"testing"
	"time"

	corenumerator "partsync/internal/core/numerator"
)

func TestFormatCode(t *testing.T) {
	period := time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		cfg  corenumerator.Config
		num  int64
		want string
	}{
		{"default pad", corenumerator.DefaultConfig("PO"), 7, "PO2503-0007"},
		{"wide pad", corenumerator.Config{Prefix: "AUD", PadWidth: 6}, 42, "AUD2503-000042"},
		{"overflow keeps digits", corenumerator.DefaultConfig("PICK"), 123456, "PICK2503-123456"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatCode(tt.cfg, period, tt.num)
			if got != tt.want {
				t.Errorf("formatCode = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestBuildKeyScopedByMonth(t *testing.T) {
	cfg := corenumerator.DefaultConfig("PO")
	jan := time.Date(2025, time.January, 31, 23, 0, 0, 0, time.UTC)
	feb := time.Date(2025, time.February, 1, 1, 0, 0, 0, time.UTC)

	if buildKey(cfg, jan) == buildKey(cfg, feb) {
		t.Error("expected distinct keys for distinct months")
	}
	if buildKey(cfg, jan) != "PO_2501" {
		t.Errorf("key = %s", buildKey(cfg, jan))
	}
}

func TestParseCode(t *testing.T) {
	tests := []struct {
		code string
		want int64
	}{
		{"PO2503-0007", 7},
		{"AUD2503-000042", 42},
		{"garbage", -1},
	}

	for _, tt := range tests {
		if got := ParseCode(tt.code); got != tt.want {
			t.Errorf("ParseCode(%q) = %d, want %d", tt.code, got, tt.want)
		}
	}
}
