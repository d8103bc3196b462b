package feed

import (
	"reflect"
	"strings"
	"testing"
)

func TestDecoder_Run(t *testing.T) {
	decoder := NewDecoder()

	tests := []struct {
		name string
		line string
		want []string
	}{
		{"plain", "a,b,c", []string{"a", "b", "c"}},
		{"embedded delimiter", `a,"b,c",d`, []string{"a", "b,c", "d"}},
		{"escaped quote", `a,"b""c",d`, []string{"a", `b"c`, "d"}},
		{"empty line", "", []string{""}},
		{"whitespace trimmed", "  a ,  b  ,c  ", []string{"a", "b", "c"}},
		{"quoted with padding", `x, "Hello, world" ,y`, []string{"x", "Hello, world", "y"}},
		{"trailing delimiter", "a,b,", []string{"a", "b", ""}},
		{"empty fields", ",,", []string{"", "", ""}},
		{"only escaped quotes", `""""`, []string{`"`}},
		{"empty quoted field", `a,"",b`, []string{"a", "", "b"}},
		{"unterminated quote", `a,"b,c`, []string{"a", "b,c"}},
		{"stray quote mid field", `ab"c,d`, []string{"abc,d"}},
		{"unicode", `ü,"ñ, é",ß`, []string{"ü", "ñ, é", "ß"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := decoder.Run(tt.line)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Run(%q) = %q, want %q", tt.line, got, tt.want)
			}
		})
	}
}

func TestDecoder_UnquotedMatchesSplit(t *testing.T) {
	decoder := NewDecoder()

	lines := []string{
		"1,MARKETS,Title,Hook,Body",
		" x , y , z ",
		"single",
		"a,,b,,c",
	}

	for _, line := range lines {
		want := strings.Split(line, ",")
		for i := range want {
			want[i] = strings.TrimSpace(want[i])
		}

		got := decoder.Run(line)
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Run(%q) = %q, want %q", line, got, want)
		}
	}
}

func TestDecoder_NeverEmpty(t *testing.T) {
	decoder := NewDecoder()

	for _, line := range []string{"", " ", `"`, `,`} {
		if got := decoder.Run(line); len(got) == 0 {
			t.Errorf("Run(%q) returned an empty sequence", line)
		}
	}
}
