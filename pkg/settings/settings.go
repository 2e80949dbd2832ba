// Package settings holds the process-wide configuration shared by the cache
// engine, effects and CLI. A Settings value is created once at startup and
// passed explicitly; nothing in the repository keeps a global instance.
package settings

import (
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Settings is the process-wide configuration.
type Settings struct {
	// EnablePlaybackCaching toggles the background prefetch engine.
	EnablePlaybackCaching bool `yaml:"enable_playback_caching"`

	// VideoCacheMinPrerollFrames is the minimum number of cached frames
	// before playback is considered ready.
	VideoCacheMinPrerollFrames int64 `yaml:"video_cache_min_preroll_frames"`

	// VideoCacheMaxPrerollFrames bounds how far ahead preroll may reach
	// before playback starts.
	VideoCacheMaxPrerollFrames int64 `yaml:"video_cache_max_preroll_frames"`

	// VideoCacheMaxFrames caps the frame count of the playback cache
	// regardless of the byte budget.
	VideoCacheMaxFrames int64 `yaml:"video_cache_max_frames"`

	// VideoCachePercentAhead is the share of cache capacity kept in the
	// direction of travel, in [0, 1].
	VideoCachePercentAhead float64 `yaml:"video_cache_percent_ahead"`

	// ClearCacheOnPauseMiss controls whether the engine discards the whole
	// cache when playback is paused and the playhead is not cached. The
	// historic behaviour is true; very short seeks keep more useful frames
	// with false.
	ClearCacheOnPauseMiss bool `yaml:"clear_cache_on_pause_miss"`

	// PixelWorkers is the number of goroutines effects may fan out to per
	// frame.
	PixelWorkers int `yaml:"pixel_workers"`

	// DecodeWorkers is the number of goroutines readers may use while
	// producing frames.
	DecodeWorkers int `yaml:"decode_workers"`

	// DebugToStderr enables diagnostic logging.
	DebugToStderr bool `yaml:"debug_to_stderr"`
}

// Default returns Settings with default values. Worker counts follow the
// host CPU count; setting LIBOPENSHOT_DEBUG (any value) enables diagnostics.
func Default() *Settings {
	s := &Settings{
		EnablePlaybackCaching:      true,
		VideoCacheMinPrerollFrames: 4,
		VideoCacheMaxPrerollFrames: 8,
		VideoCacheMaxFrames:        30,
		VideoCachePercentAhead:     0.7,
		ClearCacheOnPauseMiss:      true,
		PixelWorkers:               runtime.NumCPU(),
		DecodeWorkers:              runtime.NumCPU(),
	}
	if _, ok := os.LookupEnv("LIBOPENSHOT_DEBUG"); ok {
		s.DebugToStderr = true
	}
	return s
}

// LoadFromFile loads settings from a YAML file on top of the defaults.
func LoadFromFile(path string) (*Settings, error) {
	s := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("read settings: %w", err)
	}

	if err := yaml.Unmarshal(data, s); err != nil {
		return s, fmt.Errorf("parse settings: %w", err)
	}

	return s, nil
}
