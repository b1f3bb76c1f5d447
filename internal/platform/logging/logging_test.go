package logging

import "testing"

func TestNewAcceptsKnownFormats(t *testing.T) {
	for _, format := range []string{"", "json", "console", " JSON "} {
		logger, err := New("arena", "debug", format)
		if err != nil {
			t.Fatalf("New(format=%q): %v", format, err)
		}
		if !logger.Core().Enabled(-1) {
			t.Fatalf("expected debug level to be enabled for format %q", format)
		}
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New("arena", "chatty", "json"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New("arena", "info", "xml"); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestOrNop(t *testing.T) {
	if OrNop(nil) == nil {
		t.Fatal("expected no-op logger")
	}
}
