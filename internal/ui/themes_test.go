package ui

import (
	"bytes"
	"os"
	"testing"
)

func TestSetTheme(t *testing.T) {
	original := GetCurrentTheme()
	defer SetCurrentTheme(original)

	tests := []struct {
		name string
		want Theme
	}{
		{"dark", DarkTheme},
		{"light", LightTheme},
		{"none", NoColorTheme},
		{"unknown", DarkTheme},
		{"", DarkTheme},
	}
	for _, tt := range tests {
		SetTheme(tt.name)
		if got := GetCurrentTheme().Name; got != tt.want.Name {
			t.Errorf("SetTheme(%q) -> %q, want %q", tt.name, got, tt.want.Name)
		}
	}
}

func TestColorDisabled(t *testing.T) {
	t.Setenv("NO_COLOR", "")
	os.Unsetenv("NO_COLOR")

	var buf bytes.Buffer
	if !ColorDisabled(true, os.Stderr) {
		t.Error("-no-color must disable colors")
	}
	if !ColorDisabled(false, &buf) {
		t.Error("a buffer is not a terminal")
	}

	t.Setenv("NO_COLOR", "1")
	if !ColorDisabled(false, os.Stderr) {
		t.Error("NO_COLOR must disable colors")
	}
}

func TestInitThemeNonTerminal(t *testing.T) {
	original := GetCurrentTheme()
	defer SetCurrentTheme(original)

	SetCurrentTheme(DarkTheme)
	InitTheme(false, new(bytes.Buffer))
	if GetCurrentTheme().Name != "none" {
		t.Errorf("InitTheme on a buffer selected %q", GetCurrentTheme().Name)
	}
	if (Colors{}).Red() != "" || ColorBold() != "" {
		t.Error("no-color theme must have empty codes")
	}
}

func TestColorsFollowTheme(t *testing.T) {
	original := GetCurrentTheme()
	defer SetCurrentTheme(original)

	SetCurrentTheme(DarkTheme)
	c := Colors{}
	if c.Yellow() != DarkTheme.Warning || c.Red() != DarkTheme.Error || c.Reset() != DarkTheme.Reset {
		t.Error("Colors does not follow the current theme")
	}
	if ColorGreen() != DarkTheme.Success || ColorBlue() != DarkTheme.Primary || ColorCyan() != DarkTheme.Secondary {
		t.Error("color helpers do not follow the current theme")
	}
}
