package process

import (
	"bufio"
	"io"
)

// LogParser extracts a log level and message from one line of child
// output. Level is one of error, warning, info, debug; unknown levels
// are treated as info.
type LogParser func(line string) (level, msg string)

// scanOutput reads child output line by line and forwards it to the
// output logger at the parsed level. Runs until the stream closes.
func (s *Supervisor) scanOutput(r io.Reader, name string) {
	logger := s.opts.OutputLogger
	if logger == nil {
		logger = s.logger
	}
	logger = logger.With("proc", name)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()

		level, msg := "info", line
		if s.opts.LogParser != nil {
			level, msg = s.opts.LogParser(line)
		}

		switch level {
		case "error", "fatal", "panic":
			logger.Error(msg)
		case "warning", "warn":
			logger.Warn(msg)
		case "debug", "verbose", "trace":
			logger.Debug(msg)
		default:
			logger.Info(msg)
		}
	}
	if err := scanner.Err(); err != nil {
		s.logger.Warn("Error reading child output", "proc", name, "error", err)
	}
}
