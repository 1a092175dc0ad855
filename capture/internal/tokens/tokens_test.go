package tokens

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func TestNormalizeColor(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"rgb(18, 18, 18)", "#121212", true},
		{"rgba(255, 0, 128, 0.5)", "#ff0080", true},
		{"rgb(10 20 30 / 40%)", "#0a141e", true},
		{"rgba(0, 0, 0, 0)", "", false},
		{"transparent", "", false},
		{"", "", false},
		{"#ABCDEF", "#ABCDEF", true},
		{"color(display-p3 1 0 0)", "color(display-p3 1 0 0)", true},
		{"rgb(var(--x))", "rgb(var(--x))", true},
	}
	for _, c := range cases {
		got, ok := NormalizeColor(c.in)
		if got != c.want || ok != c.ok {
			t.Errorf("NormalizeColor(%q): got (%q,%v), want (%q,%v)", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestAccumulator_DuplicateColorOnce(t *testing.T) {
	// WHAT: Two elements with background rgb(18, 18, 18) yield #121212 once.
	// WHY: Token sequences must not contain duplicates.
	a := New()
	a.AddColor("rgb(18, 18, 18)")
	a.AddColor("rgb(255, 255, 255)")
	a.AddColor("rgb(18, 18, 18)")
	a.AddColor("rgba(0, 0, 0, 0)")
	got := a.Tokens().Colors
	if len(got) != 2 || got[0] != "#121212" || got[1] != "#ffffff" {
		t.Errorf("colors: got %v", got)
	}
}

func TestAccumulator_FontSizesSorted(t *testing.T) {
	// WHAT: Font sizes sort numerically, not lexically, across units.
	// WHY: "9px" < "12px" < "1rem"(16px) must hold for type scales.
	a := New()
	for _, s := range []string{"16px", "9px", "12px", "1rem", "12px", "2em", "clamp(1rem, 2vw, 3rem)", "10.5pt"} {
		a.AddFontSize(s)
	}
	got := a.Tokens().FontSizes
	want := []string{"9px", "12px", "10.5pt", "16px", "1rem", "2em", "clamp(1rem, 2vw, 3rem)"}
	if len(got) != len(want) {
		t.Fatalf("sizes: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sizes[%d]: got %q, want %q (all %v)", i, got[i], want[i], got)
		}
	}
}

func TestAccumulator_NoDuplicatesAnywhere(t *testing.T) {
	a := New()
	for i := 0; i < 3; i++ {
		a.AddFontFamily("Inter, sans-serif")
		a.AddSpacing("8px")
		a.AddSpacing("0px")
		a.AddRadius("4px")
		a.AddShadow("none")
		a.AddShadow("0 1px 2px #000")
		a.AddTransition("all 0s ease 0s")
		a.AddTransition("opacity 0.3s ease")
		a.AddZIndex("10")
		a.AddZIndex("auto")
	}
	tk := a.Tokens()
	for name, seq := range map[string][]string{
		"families": tk.FontFamilies, "spacing": tk.Spacing, "radii": tk.Radii,
		"shadows": tk.Shadows, "transitions": tk.Transitions, "z": tk.ZIndices,
	} {
		if len(seq) != 1 {
			t.Errorf("%s: got %v, want exactly one value", name, seq)
		}
	}
	if tk.Palette == nil || tk.Transforms == nil {
		t.Error("empty sequences must be non-nil")
	}
}

func TestIsDefaultAnimation(t *testing.T) {
	for _, v := range []string{"none", "", "none 0s ease 0s 1 normal none running", "0s ease 0s 1 normal none running none"} {
		if !IsDefaultAnimation(v) {
			t.Errorf("%q should be default", v)
		}
	}
	if IsDefaultAnimation("spin 2s linear 0s infinite normal none running") {
		t.Error("spin animation should not be default")
	}
}

func TestPalette_SolidImage(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 40, 40))
	for y := 0; y < 40; y++ {
		for x := 0; x < 40; x++ {
			c := color.NRGBA{R: 200, G: 30, B: 30, A: 255}
			if x >= 20 {
				c = color.NRGBA{R: 30, G: 30, B: 200, A: 255}
			}
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := Palette(buf.Bytes(), 2)
	if err != nil {
		t.Fatalf("Palette: %v", err)
	}
	if len(got) == 0 {
		t.Fatal("empty palette")
	}
	for _, c := range got {
		if len(c) != 7 || c[0] != '#' {
			t.Errorf("bad color %q", c)
		}
	}
}

func TestPalette_Garbage(t *testing.T) {
	if _, err := Palette([]byte("not an image"), 3); err == nil {
		t.Error("expected decode error")
	}
}
