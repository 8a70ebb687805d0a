package hotkey

import (
	"errors"
	"testing"
)

func TestNewCombinationValidation(t *testing.T) {
	if _, err := NewCombination(KeyControl); !errors.Is(err, ErrTooFewKeys) {
		t.Errorf("single key: got %v, want ErrTooFewKeys", err)
	}
	if _, err := NewCombination(); !errors.Is(err, ErrTooFewKeys) {
		t.Errorf("empty: got %v, want ErrTooFewKeys", err)
	}
	if _, err := NewCombination(KeyA, KeyX); !errors.Is(err, ErrNoModifier) {
		t.Errorf("no modifier: got %v, want ErrNoModifier", err)
	}
	if _, err := NewCombination(KeyControl, KeyX); err != nil {
		t.Errorf("valid combination rejected: %v", err)
	}
}

func TestNewCombinationDeduplicates(t *testing.T) {
	c, err := NewCombination(KeyControl, KeyX, KeyControl, KeyX)
	if err != nil {
		t.Fatalf("NewCombination: %v", err)
	}
	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}
}

func TestCombinationNormalizesModifierSides(t *testing.T) {
	left, err := NewCombination(KeyLControl, KeyLAlt, KeyX)
	if err != nil {
		t.Fatalf("NewCombination: %v", err)
	}
	generic, err := NewCombination(KeyControl, KeyAlt, KeyX)
	if err != nil {
		t.Fatalf("NewCombination: %v", err)
	}
	if !left.Equal(generic) {
		t.Error("left-side modifiers should equal generic modifiers")
	}
	if !left.Contains(KeyRControl) {
		t.Error("Contains should fold right Ctrl onto Ctrl")
	}
}

func TestParseCombination(t *testing.T) {
	c, err := ParseCombination("ctrl+alt+d")
	if err != nil {
		t.Fatalf("ParseCombination: %v", err)
	}
	if !c.Equal(DefaultCombination()) {
		t.Errorf("parsed %s, want %s", c, DefaultCombination())
	}

	if _, err := ParseCombination("ctrl+bogus"); err == nil {
		t.Error("expected error for unknown key name")
	}
	if _, err := ParseCombination("a+b"); !errors.Is(err, ErrNoModifier) {
		t.Errorf("a+b: got %v, want ErrNoModifier", err)
	}
}

func TestCombinationString(t *testing.T) {
	c, err := NewCombination(KeyX, KeyAlt, KeyControl)
	if err != nil {
		t.Fatalf("NewCombination: %v", err)
	}
	// Modifiers come first regardless of input order.
	if got := c.String(); got != "Ctrl+Alt+X" {
		t.Errorf("String = %q, want %q", got, "Ctrl+Alt+X")
	}
}

func TestReservedCombinations(t *testing.T) {
	reserved, err := NewCombination(KeyControl, KeyAlt, KeyDelete)
	if err != nil {
		t.Fatalf("NewCombination: %v", err)
	}
	if !reserved.IsReserved() {
		t.Error("Ctrl+Alt+Delete should be reserved")
	}
	if DefaultCombination().IsReserved() {
		t.Error("default combination must not be reserved")
	}
}
