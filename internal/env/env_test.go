package env

import (
	"testing"
	"time"
)

func TestBool(t *testing.T) {
	tests := []struct {
		value string
		def   bool
		want  bool
	}{
		{"", true, true},
		{"1", false, true},
		{" YES ", false, true},
		{"off", true, false},
		{"maybe", true, true},
	}
	for _, tt := range tests {
		t.Setenv("XCAP_TEST_BOOL", tt.value)
		if got := Bool("XCAP_TEST_BOOL", tt.def); got != tt.want {
			t.Errorf("Bool(%q, %t) = %t, want %t", tt.value, tt.def, got, tt.want)
		}
	}
}

func TestIntClamped(t *testing.T) {
	tests := []struct {
		value string
		want  int
	}{
		{"", 30},
		{"abc", 30},
		{"0", 1},
		{"45", 45},
		{"999", 120},
	}
	for _, tt := range tests {
		t.Setenv("XCAP_TEST_INT", tt.value)
		if got := IntClamped("XCAP_TEST_INT", 30, 1, 120); got != tt.want {
			t.Errorf("IntClamped(%q) = %d, want %d", tt.value, got, tt.want)
		}
	}
}

func TestDuration(t *testing.T) {
	tests := []struct {
		value string
		want  time.Duration
	}{
		{"", time.Second},
		{"1500ms", 1500 * time.Millisecond},
		{"-2s", time.Second},
		{"soon", time.Second},
	}
	for _, tt := range tests {
		t.Setenv("XCAP_TEST_DURATION", tt.value)
		if got := Duration("XCAP_TEST_DURATION", time.Second); got != tt.want {
			t.Errorf("Duration(%q) = %s, want %s", tt.value, got, tt.want)
		}
	}
}

func TestString(t *testing.T) {
	t.Setenv("XCAP_TEST_STRING", "  ")
	if got := String("XCAP_TEST_STRING", "fallback"); got != "fallback" {
		t.Fatalf("String() = %q, want fallback", got)
	}
	t.Setenv("XCAP_TEST_STRING", " portal ")
	if got := String("XCAP_TEST_STRING", "fallback"); got != "portal" {
		t.Fatalf("String() = %q, want portal", got)
	}
}

func TestClampIgnoresInvertedRange(t *testing.T) {
	if got := clamp(50, 10, 1); got != 50 {
		t.Fatalf("clamp with inverted bounds = %d, want 50", got)
	}
}
