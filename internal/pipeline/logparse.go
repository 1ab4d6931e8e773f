package pipeline

import "strings"

// ParseLogLevel classifies a line of child process stderr output.
// Handles the libav family format "[level] message" (with optional
// "[component @ 0x...]" prefix) and the VLC format
// "component name level: message". Unrecognized lines are info.
func ParseLogLevel(line string) (level, msg string) {
	if lvl, rest, ok := parseBracketLevel(line); ok {
		return lvl, rest
	}
	if lvl, ok := parseVLCLevel(line); ok {
		return lvl, line
	}
	return "info", line
}

func parseBracketLevel(line string) (level, msg string, ok bool) {
	if !strings.HasPrefix(line, "[") {
		return "", "", false
	}
	end := strings.Index(line, "] ")
	if end < 1 {
		return "", "", false
	}
	if lvl, known := avLevel(line[1:end]); known {
		return lvl, line[end+2:], true
	}
	// Component prefix: keep it, look for "[level]" right after.
	rest := line[end+2:]
	if strings.HasPrefix(rest, "[") {
		if next := strings.Index(rest, "] "); next > 1 {
			if lvl, known := avLevel(rest[1:next]); known {
				return lvl, line[:end+2] + rest[next+2:], true
			}
		}
	}
	return "", "", false
}

func avLevel(s string) (string, bool) {
	switch s {
	case "panic", "fatal", "error":
		return "error", true
	case "warning":
		return "warning", true
	case "verbose", "debug", "trace":
		return "debug", true
	case "quiet", "info":
		return "info", true
	}
	return "", false
}

func parseVLCLevel(line string) (string, bool) {
	for _, lvl := range [...]string{"error", "warning", "debug"} {
		if strings.Contains(line, " "+lvl+": ") {
			return lvl, true
		}
	}
	return "", false
}
