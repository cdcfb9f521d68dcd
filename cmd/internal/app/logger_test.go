package app

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want slog.Level
	}{
		{in: "debug", want: slog.LevelDebug},
		{in: "INFO", want: slog.LevelInfo},
		{in: "warn", want: slog.LevelWarn},
		{in: "warning", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "unknown", want: slog.LevelInfo},
		{in: "", want: slog.LevelInfo},
	}

	for _, tc := range cases {
		got := parseLogLevel(tc.in)
		if got != tc.want {
			t.Fatalf("parseLogLevel(%q)=%v want=%v", tc.in, got, tc.want)
		}
	}
}

func TestNewLoggerFormats(t *testing.T) {
	t.Parallel()

	cases := []struct {
		format   string
		tty      bool
		wantJSON bool
	}{
		{format: "json", tty: true, wantJSON: true},
		{format: "pretty", tty: false, wantJSON: false},
		{format: "auto", tty: false, wantJSON: true},
		{format: "auto", tty: true, wantJSON: false},
		{format: "", tty: false, wantJSON: true},
	}

	for _, tc := range cases {
		var buf bytes.Buffer
		log := newLogger(&buf, "info", tc.format, tc.tty)
		log.Info("client.refresh.ok", "waiters", 2)

		line := strings.TrimSpace(buf.String())
		isJSON := json.Valid([]byte(line))
		if isJSON != tc.wantJSON {
			t.Fatalf("format=%q tty=%v: json=%v want=%v (%q)", tc.format, tc.tty, isJSON, tc.wantJSON, line)
		}
		if !strings.Contains(stripANSI(line), "client.refresh.ok") {
			t.Fatalf("format=%q: message missing in %q", tc.format, line)
		}
	}
}
