// Package pipeline derives the encoder and streamer command lines from a
// settings record. Building is pure and deterministic: the same settings
// always produce the same pair, and a pair is rebuilt rather than mutated
// when settings change.
package pipeline

import (
	"fmt"
	"strings"

	"github.com/brutus/deskstream/internal/settings"
)

// Commands names the two external executables to invoke. Only the names
// are configurable; all arguments are derived from settings.
type Commands struct {
	Encoder  string
	Streamer string
}

// DefaultCommands returns the historical binary names.
func DefaultCommands() Commands {
	return Commands{Encoder: "avconv", Streamer: "cvlc"}
}

// Pair holds the two argv vectors: the encoder captures the desktop and
// writes an MPEG-TS stream to stdout, the streamer reads it on stdin and
// serves it over HTTP.
type Pair struct {
	Encoder  []string
	Streamer []string
}

// Build derives the command pair from resolved settings. Settings must
// have passed settings.Resolve; Build does not re-validate.
func Build(s settings.Settings, cmds Commands) (*Pair, error) {
	var enc strings.Builder
	enc.WriteString(cmds.Encoder)
	if s.Audio {
		enc.WriteString(" -f alsa -ac 2 -i pulse -acodec libmp3lame")
	}
	if s.Video {
		fmt.Fprintf(&enc, " -f x11grab -r %d -s %s -i :0.0", s.Framerate, s.ResIn)
		fmt.Fprintf(&enc, " -vcodec libx264 -preset ultrafast -s %s", s.ResOut)
	}
	enc.WriteString(" -threads 0 -f mpegts -")

	encoder, err := Split(enc.String())
	if err != nil {
		return nil, fmt.Errorf("encoder command: %w", err)
	}

	streamer, err := Split(cmds.Streamer + " -I dummy -")
	if err != nil {
		return nil, fmt.Errorf("streamer command: %w", err)
	}
	// The sout chain is appended as one pre-built token so no shell or
	// tokenizer ever re-interprets the braces.
	streamer = append(streamer, fmt.Sprintf("--sout=#std{access=http,mux=ts,dst=:%d}", s.Port))

	return &Pair{Encoder: encoder, Streamer: streamer}, nil
}

// EncoderString returns the encoder command as a printable string.
func (p *Pair) EncoderString() string {
	return commandString(p.Encoder)
}

// StreamerString returns the streamer command as a printable string.
func (p *Pair) StreamerString() string {
	return commandString(p.Streamer)
}

// commandString joins argv for display, quoting only tokens that would
// not survive re-splitting.
func commandString(argv []string) string {
	quoted := make([]string, len(argv))
	for i, tok := range argv {
		if tok == "" || strings.ContainsAny(tok, " \t\"'") {
			quoted[i] = `"` + tok + `"`
		} else {
			quoted[i] = tok
		}
	}
	return strings.Join(quoted, " ")
}
