package pipeline

import "testing"

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		name      string
		line      string
		wantLevel string
		wantMsg   string
	}{
		{
			"bare level prefix",
			"[error] Invalid argument",
			"error", "Invalid argument",
		},
		{
			"warning prefix",
			"[warning] deprecated pixel format used",
			"warning", "deprecated pixel format used",
		},
		{
			"component then level",
			"[libx264 @ 0x5612] [verbose] using cpu capabilities",
			"debug", "[libx264 @ 0x5612] using cpu capabilities",
		},
		{
			"component without level",
			"[libx264 @ 0x5612] profile High, level 4.0",
			"info", "[libx264 @ 0x5612] profile High, level 4.0",
		},
		{
			"vlc error",
			"[00007f1] main input error: ES_OUT_SET_(GROUP_)PCR is called too late",
			"error", "[00007f1] main input error: ES_OUT_SET_(GROUP_)PCR is called too late",
		},
		{
			"vlc warning",
			"core libvlc warning: cannot load module",
			"warning", "core libvlc warning: cannot load module",
		},
		{
			"plain line",
			"frame=  142 fps= 25 q=23.0 size=512kB",
			"info", "frame=  142 fps= 25 q=23.0 size=512kB",
		},
		{
			"panic maps to error",
			"[panic] out of memory",
			"error", "out of memory",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, msg := ParseLogLevel(tt.line)
			if level != tt.wantLevel {
				t.Errorf("level = %q, want %q", level, tt.wantLevel)
			}
			if msg != tt.wantMsg {
				t.Errorf("msg = %q, want %q", msg, tt.wantMsg)
			}
		})
	}
}
