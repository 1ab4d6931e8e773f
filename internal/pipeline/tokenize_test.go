package pipeline

import (
	"reflect"
	"testing"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"plain", "avconv -f alsa -i pulse", []string{"avconv", "-f", "alsa", "-i", "pulse"}},
		{"leading and trailing space", "  a b  ", []string{"a", "b"}},
		{"collapsed whitespace", "a \t b", []string{"a", "b"}},
		{"double quotes", `say "hello world"`, []string{"say", "hello world"}},
		{"single quotes", "say 'hello world'", []string{"say", "hello world"}},
		{"quote inside token", `--title="my stream"`, []string{"--title=my stream"}},
		{"braces survive", "--sout=#std{access=http,mux=ts,dst=:1312}", []string{"--sout=#std{access=http,mux=ts,dst=:1312}"}},
		{"backslash is literal", `C:\path\file`, []string{`C:\path\file`}},
		{"backslash before quote", `a\ b`, []string{`a\`, "b"}},
		{"empty quoted token", `a "" b`, []string{"a", "", "b"}},
		{"empty input", "", nil},
		{"only spaces", "   ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Split(tt.in)
			if err != nil {
				t.Fatalf("Split(%q): %v", tt.in, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Split(%q) = %#v, want %#v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSplitUnclosedQuote(t *testing.T) {
	for _, in := range []string{`echo "unclosed`, "echo 'unclosed"} {
		if _, err := Split(in); err == nil {
			t.Errorf("Split(%q) should fail", in)
		}
	}
}
