package tools

import "testing"

func TestParse(t *testing.T) {
	cases := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"pen", Pen, false},
		{"PEN", Pen, false},
		{" arrow ", Arrow, false},
		{"circle", Ellipse, false}, // legacy alias
		{"ellipse", Ellipse, false},
		{"spraycan", "", true},
		{"", "", true},
	}
	for _, tc := range cases {
		got, err := Parse(tc.in)
		if tc.wantErr != (err != nil) {
			t.Errorf("Parse(%q) error = %v", tc.in, err)
		}
		if got != tc.want {
			t.Errorf("Parse(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestPaletteSelect(t *testing.T) {
	p := NewPalette(Settings{Color: "#FF0000", Thickness: 3})

	if p.Active().Kind() != Pen {
		t.Fatalf("initial tool = %s, want pen", p.Active().Kind())
	}

	if err := p.Select(Eraser); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if p.Active().Kind() != Eraser {
		t.Fatalf("active = %s, want eraser", p.Active().Kind())
	}

	if err := p.Select("bogus"); err == nil {
		t.Error("Select accepted an unknown tool")
	}
	if p.Active().Kind() != Eraser {
		t.Error("failed selection changed the active tool")
	}
}

func TestPaletteBrushPropagation(t *testing.T) {
	p := NewPalette(Settings{Color: "#FF0000", Thickness: 3})
	p.SetColor("#00FF00")
	p.SetThickness(7)

	pen := p.tools[Pen].(*penTool)
	if pen.settings.Color != "#00FF00" || pen.settings.Thickness != 7 {
		t.Errorf("pen settings = %+v", pen.settings)
	}

	// The eraser ignores color but takes thickness.
	eraser := p.tools[Eraser].(*eraserTool)
	if eraser.settings.Color == "#00FF00" {
		t.Error("eraser should ignore color changes")
	}
	if eraser.settings.Thickness != 7 {
		t.Errorf("eraser thickness = %v, want 7", eraser.settings.Thickness)
	}
}

func TestKindsAreValid(t *testing.T) {
	for _, k := range Kinds() {
		if !k.Valid() {
			t.Errorf("%s reports invalid", k)
		}
	}
}
