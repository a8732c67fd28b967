package config

import (
	"fmt"
	"os"
	"runtime"
)

// Profile is a concurrency sizing tier for the daemon's target hardware:
// everything from a Pi Zero sharing one core with a handful of receivers up
// to a Pi 4/5 or Jetson running a dozen.
type Profile string

const (
	// ProfileMinimal - Pi Zero, BeagleBone (512MB RAM)
	ProfileMinimal Profile = "minimal"

	// ProfileStandard - Pi 3/4, Orange Pi (1GB RAM)
	ProfileStandard Profile = "standard"

	// ProfileFull - Pi 4/5, Jetson Nano (2GB+ RAM)
	ProfileFull Profile = "full"
)

// ProfileConfig sizes the concurrency primitives the daemon spawns per
// configured device: the broadcast bus capacity each supervisor hands its
// record bus, and a soft cap on concurrently running devices
// kept for the blocking-pool budget (serial reads, PPS FETCH, SHM segment
// mapping all run off the normal goroutine pool).
type ProfileConfig struct {
	Name        Profile `mapstructure:"name"`
	Description string  `mapstructure:"description"`

	BroadcastCapacity int `mapstructure:"broadcast_capacity"`
	MaxDevices        int `mapstructure:"max_devices"`
	BlockingPoolSize  int `mapstructure:"blocking_pool_size"`
}

// GetDefaultProfiles returns the default profile configurations.
func GetDefaultProfiles() map[Profile]*ProfileConfig {
	return map[Profile]*ProfileConfig{
		ProfileMinimal: {
			Name:              ProfileMinimal,
			Description:       "Minimal profile for Pi Zero, BeagleBone (512MB RAM)",
			BroadcastCapacity: 8,
			MaxDevices:        2,
			BlockingPoolSize:  4,
		},
		ProfileStandard: {
			Name:              ProfileStandard,
			Description:       "Standard profile for Pi 3/4, Orange Pi (1GB RAM)",
			BroadcastCapacity: 20,
			MaxDevices:        6,
			BlockingPoolSize:  16,
		},
		ProfileFull: {
			Name:              ProfileFull,
			Description:       "Full profile for Pi 4/5, Jetson Nano (2GB+ RAM)",
			BroadcastCapacity: 64,
			MaxDevices:        32,
			BlockingPoolSize:  64,
		},
	}
}

// LoadProfile returns the default profile configuration for profileName.
func LoadProfile(profileName string) (*ProfileConfig, error) {
	profile := Profile(profileName)
	defaults := GetDefaultProfiles()
	cfg, exists := defaults[profile]
	if !exists {
		return nil, fmt.Errorf("unknown profile: %s", profileName)
	}
	return cfg, nil
}

// DetectProfile picks a profile from the running board, falling back to
// ProfileFull on anything that isn't ARM (development machines, servers).
func DetectProfile() Profile {
	if runtime.GOARCH != "arm" && runtime.GOARCH != "arm64" {
		return ProfileFull
	}
	return GetProfileForBoard(DetectBoard())
}

// DetectBoard attempts to identify the board type from known device-tree
// and distro markers.
func DetectBoard() string {
	if data, err := os.ReadFile("/proc/device-tree/model"); err == nil {
		model := string(data)
		switch {
		case contains(model, "Raspberry Pi Zero"):
			return "Pi Zero"
		case contains(model, "Raspberry Pi 3"):
			return "Pi 3"
		case contains(model, "Raspberry Pi 4"):
			return "Pi 4"
		case contains(model, "Raspberry Pi 5"):
			return "Pi 5"
		case contains(model, "Raspberry Pi"):
			return "Raspberry Pi"
		}
	}

	if _, err := os.Stat("/etc/dogtag"); err == nil {
		return "BeagleBone"
	}
	if _, err := os.Stat("/etc/orangepi-release"); err == nil {
		return "Orange Pi"
	}
	if _, err := os.Stat("/etc/nv_tegra_release"); err == nil {
		return "Jetson"
	}

	if runtime.GOOS == "linux" {
		if runtime.GOARCH == "arm64" {
			return "ARM64 Linux"
		}
		if runtime.GOARCH == "arm" {
			return "ARM Linux"
		}
		return "Linux"
	}

	return "Unknown"
}

// GetProfileForBoard returns the recommended profile for a board type.
func GetProfileForBoard(board string) Profile {
	switch board {
	case "Pi Zero", "BeagleBone":
		return ProfileMinimal
	case "Pi 3", "Orange Pi":
		return ProfileStandard
	case "Pi 4", "Pi 5", "Jetson":
		return ProfileFull
	default:
		return ProfileStandard
	}
}

func contains(s, substr string) bool {
	return len(s) >= len(substr) && findSubstring(s, substr)
}

func findSubstring(s, substr string) bool {
	for i := 0; i <= len(s)-len(substr); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
