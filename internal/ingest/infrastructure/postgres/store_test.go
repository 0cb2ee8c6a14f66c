package postgres

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncateNote_ShortMessageUnchanged(t *testing.T) {
	message := "validation_error: value out of range"
	if got := truncateNote(message); got != message {
		t.Fatalf("expected message unchanged, got %q", got)
	}
}

func TestTruncateNote_CapsAtLimit(t *testing.T) {
	message := strings.Repeat("a", errorNoteMaxLen+37)
	got := truncateNote(message)
	if utf8.RuneCountInString(got) != errorNoteMaxLen {
		t.Fatalf("expected %d characters, got %d", errorNoteMaxLen, utf8.RuneCountInString(got))
	}
	if got != message[:errorNoteMaxLen] {
		t.Fatalf("expected leading %d characters preserved", errorNoteMaxLen)
	}
}

func TestTruncateNote_MultiByteRuneBoundary(t *testing.T) {
	// Each rune is 3 bytes, so a byte-wise cut at the limit lands mid-rune.
	message := strings.Repeat("☃", errorNoteMaxLen+100)
	got := truncateNote(message)
	if !utf8.ValidString(got) {
		t.Fatalf("expected valid UTF-8 after truncation, got %q", got[len(got)-6:])
	}
	if n := utf8.RuneCountInString(got); n != errorNoteMaxLen {
		t.Fatalf("expected %d characters, got %d", errorNoteMaxLen, n)
	}
	if !strings.HasPrefix(message, got) {
		t.Fatalf("expected truncation to keep a prefix of the original")
	}
}
