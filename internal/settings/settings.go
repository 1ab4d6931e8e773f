// Package settings holds the stream settings record, its JSON persistence,
// and the resolution of derived fields.
package settings

import (
	"fmt"

	"github.com/brutus/deskstream/internal/display"
)

// Settings describes one desktop stream. The zero values of ResIn and
// ResOut mean "derive": ResIn from the detected screen size, ResOut from
// ResIn. Derivation happens exactly once, in Resolve.
type Settings struct {
	Audio     bool   `json:"audio"`
	Video     bool   `json:"video"`
	ResIn     string `json:"res_in,omitempty"`
	ResOut    string `json:"res_out,omitempty"`
	Framerate int    `json:"framerate"`
	Port      int    `json:"port"`
}

// Default returns the built-in defaults, matching the historical ones.
func Default() Settings {
	return Settings{
		Audio:     true,
		Video:     true,
		Framerate: 25,
		Port:      1312,
	}
}

// Resolve validates s and fills the derived resolution fields, returning a
// complete record. detect supplies the screen size and is only consulted
// when ResIn is unset.
func Resolve(s Settings, detect display.DetectFunc) (Settings, error) {
	if !s.Audio && !s.Video {
		return Settings{}, fmt.Errorf("nothing to capture: audio and video both disabled")
	}
	if s.Framerate <= 0 {
		return Settings{}, fmt.Errorf("framerate must be positive, got %d", s.Framerate)
	}
	if s.Port <= 0 || s.Port > 65535 {
		return Settings{}, fmt.Errorf("port must be in 1..65535, got %d", s.Port)
	}

	if s.ResIn == "" {
		size, err := detect()
		if err != nil {
			return Settings{}, fmt.Errorf("detect screen size: %w", err)
		}
		s.ResIn = size.String()
	} else if _, err := display.Parse(s.ResIn); err != nil {
		return Settings{}, fmt.Errorf("res_in: %w", err)
	}

	if s.ResOut == "" {
		s.ResOut = s.ResIn
	} else if _, err := display.Parse(s.ResOut); err != nil {
		return Settings{}, fmt.Errorf("res_out: %w", err)
	}

	return s, nil
}
