package key

import "testing"

func TestKeyString(t *testing.T) {
	tests := []struct {
		key  Key
		want string
	}{
		{KeyNone, "None"},
		{KeyEscape, "Escape"},
		{KeyEnter, "Enter"},
		{KeyF12, "F12"},
		{KeyRune, "Rune"},
		{Key(999), "Key(999)"},
	}

	for _, tt := range tests {
		if got := tt.key.String(); got != tt.want {
			t.Errorf("Key(%d).String() = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestKeyFromName(t *testing.T) {
	tests := []struct {
		name string
		want Key
	}{
		{"enter", KeyEnter},
		{"Enter", KeyEnter},
		{"cr", KeyEnter},
		{"esc", KeyEscape},
		{"PageDown", KeyPageDown},
		{"pgdn", KeyPageDown},
		{"f5", KeyF5},
		{"rune", KeyNone},
		{"bogus", KeyNone},
	}

	for _, tt := range tests {
		if got := KeyFromName(tt.name); got != tt.want {
			t.Errorf("KeyFromName(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestKeyClassification(t *testing.T) {
	if !KeyF3.IsFunctionKey() || KeyEnter.IsFunctionKey() {
		t.Error("IsFunctionKey misclassifies keys")
	}
	if !KeyLeft.IsArrowKey() || KeyHome.IsArrowKey() {
		t.Error("IsArrowKey misclassifies keys")
	}
	if KeyRune.IsSpecial() || KeyNone.IsSpecial() || !KeyTab.IsSpecial() {
		t.Error("IsSpecial misclassifies keys")
	}
}
