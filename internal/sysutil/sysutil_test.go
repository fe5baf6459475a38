package sysutil

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestSetLogLevel_AllVariants(t *testing.T) {
	orig := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(orig) })

	cases := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"  DeBuG  ", zerolog.DebugLevel}, // case + trim
		{"info", zerolog.InfoLevel},
		{"", zerolog.InfoLevel}, // empty -> info
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel}, // alias
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"panic", zerolog.PanicLevel},
		{"unknown", zerolog.InfoLevel}, // default
	}

	for _, tc := range cases {
		SetLogLevel(tc.in)
		if got := zerolog.GlobalLevel(); got != tc.want {
			t.Fatalf("SetLogLevel(%q) -> %v; want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseBool(t *testing.T) {
	cases := map[string][2]bool{
		"1": {true, true}, " TRUE ": {true, true}, "on": {true, true}, "Y": {true, true},
		"0": {false, true}, "off": {false, true}, "No": {false, true},
		"": {false, false}, "maybe": {false, false},
	}
	for in, want := range cases {
		v, ok := ParseBool(in)
		if v != want[0] || ok != want[1] {
			t.Fatalf("ParseBool(%q) = (%v,%v); want (%v,%v)", in, v, ok, want[0], want[1])
		}
	}
}

func TestSetupLogger(t *testing.T) {
	origLevel := zerolog.GlobalLevel()
	origLogger := log.Logger
	t.Cleanup(func() {
		zerolog.SetGlobalLevel(origLevel)
		log.Logger = origLogger
	})

	var buf bytes.Buffer
	SetupLogger(&buf, "warn", false, "signal-pipeline")
	log.Info().Msg("dropped")
	log.Warn().Str("source", "rss").Msg("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Fatalf("info line should be filtered at warn level: %s", out)
	}
	if !strings.Contains(out, `"service":"signal-pipeline"`) || !strings.Contains(out, `"source":"rss"`) {
		t.Fatalf("unexpected log output: %s", out)
	}

	buf.Reset()
	SetupLogger(&buf, "info", true, "signal-pipeline")
	log.Info().Msg("pretty line")
	if strings.HasPrefix(strings.TrimSpace(buf.String()), "{") {
		t.Fatalf("pretty output should not be JSON: %s", buf.String())
	}
}

func TestFirstNonEmpty(t *testing.T) {
	// no args -> ""
	if got := FirstNonEmpty(); got != "" {
		t.Fatalf("FirstNonEmpty() = %q; want \"\"", got)
	}
	// only empties -> ""
	if got := FirstNonEmpty(" ", "\t", "\n"); got != "" {
		t.Fatalf("FirstNonEmpty(empties) = %q; want \"\"", got)
	}
	// picks first non-empty (preserves original spacing)
	if got := FirstNonEmpty("   ", "  hello  ", "world"); got != "  hello  " {
		t.Fatalf("FirstNonEmpty(...) = %q; want %q", got, "  hello  ")
	}
	// first already non-empty
	if got := FirstNonEmpty("alpha", "beta"); got != "alpha" {
		t.Fatalf("FirstNonEmpty(...) = %q; want %q", got, "alpha")
	}
}
