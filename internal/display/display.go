// Package display detects the desktop screen size by asking the X server
// tools that ship with every distribution this tool targets.
package display

import (
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
)

// Size is a screen size in pixels.
type Size struct {
	Width  int
	Height int
}

// String formats the size as "WxH", the form the capture pipeline expects.
func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Fallback is used when no display tool answers. An explicit --res-in
// always takes precedence over detection.
var Fallback = Size{Width: 1920, Height: 1080}

// DetectFunc resolves the screen size. Injected into settings resolution
// so tests can substitute a fixed size.
type DetectFunc func() (Size, error)

var (
	xrandrRe   = regexp.MustCompile(`current\s+(\d+)\s+x\s+(\d+)`)
	xdpyinfoRe = regexp.MustCompile(`dimensions:\s+(\d+)x(\d+)\s+pixels`)
)

// Detect queries xrandr, then xdpyinfo, for the current screen size.
func Detect() (Size, error) {
	if out, err := exec.Command("xrandr", "--current").Output(); err == nil {
		if size, ok := parseXrandr(string(out)); ok {
			return size, nil
		}
	}
	if out, err := exec.Command("xdpyinfo").Output(); err == nil {
		if size, ok := parseXdpyinfo(string(out)); ok {
			return size, nil
		}
	}
	return Size{}, fmt.Errorf("no usable display tool (tried xrandr, xdpyinfo)")
}

// parseXrandr extracts the size from the xrandr screen header line:
// "Screen 0: minimum 320 x 200, current 1920 x 1080, maximum 16384 x 16384".
func parseXrandr(out string) (Size, bool) {
	m := xrandrRe.FindStringSubmatch(out)
	if m == nil {
		return Size{}, false
	}
	return sizeFromMatch(m[1], m[2])
}

// parseXdpyinfo extracts the size from the xdpyinfo screen section:
// "  dimensions:    1920x1080 pixels (508x285 millimeters)".
func parseXdpyinfo(out string) (Size, bool) {
	m := xdpyinfoRe.FindStringSubmatch(out)
	if m == nil {
		return Size{}, false
	}
	return sizeFromMatch(m[1], m[2])
}

func sizeFromMatch(w, h string) (Size, bool) {
	width, err := strconv.Atoi(w)
	if err != nil {
		return Size{}, false
	}
	height, err := strconv.Atoi(h)
	if err != nil {
		return Size{}, false
	}
	if width <= 0 || height <= 0 {
		return Size{}, false
	}
	return Size{Width: width, Height: height}, true
}

// Parse parses a "WxH" resolution string.
func Parse(s string) (Size, error) {
	w, h, ok := strings.Cut(s, "x")
	if !ok {
		return Size{}, fmt.Errorf("invalid resolution %q, expected WxH", s)
	}
	size, ok := sizeFromMatch(w, h)
	if !ok {
		return Size{}, fmt.Errorf("invalid resolution %q, expected WxH", s)
	}
	return size, nil
}
