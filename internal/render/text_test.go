package render

import (
	"image/color"
	"testing"
)

func TestFontsCacheAndLookup(t *testing.T) {
	fonts := NewFonts(t.TempDir())
	a, err := fonts.Face("Go-Regular", 24)
	if err != nil {
		t.Fatalf("builtin font: %v", err)
	}
	b, _ := fonts.Face("Go-Regular", 24)
	if a != b {
		t.Fatalf("expected cached face for same name and size")
	}
	if _, err := fonts.Face("Missing", 24); err == nil {
		t.Fatalf("expected error for unknown font")
	}
	if _, err := fonts.Face("Go-Bold", 0); err == nil {
		t.Fatalf("expected error for zero size")
	}
}

func TestTextBlockSize(t *testing.T) {
	face, err := NewFonts("").Face("Go-Mono", 20)
	if err != nil {
		t.Fatalf("face: %v", err)
	}
	measure := Measure(face)
	lines := []string{"abc", "", "abcdef"}
	img := TextBlock(lines, face, color.White, TextAlignCenter)
	if got, want := img.Bounds().Dx(), measure("abcdef"); got != want {
		t.Fatalf("width = %d, want %d", got, want)
	}
	if got, want := img.Bounds().Dy(), 3*LineHeight(face); got != want {
		t.Fatalf("height = %d, want %d", got, want)
	}
	if measure("abcdef") <= measure("abc") {
		t.Fatalf("measure not monotonic")
	}
}

func TestTextBlockEmpty(t *testing.T) {
	face, _ := NewFonts("").Face("", 12)
	img := TextBlock(nil, face, color.White, TextAlignLeft)
	if !img.Bounds().Empty() {
		t.Fatalf("expected empty image, got %v", img.Bounds())
	}
}
