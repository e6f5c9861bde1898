package core

import (
	"strings"
	"testing"

	"github.com/jo-hoe/gowall/internal/preferences"
)

func TestBuildPrompt_Golden(t *testing.T) {
	settings := preferences.CustomizationSettings{
		Location:  "Mountains",
		Scene:     "Natural",
		Style:     "Photorealistic",
		FontStyle: "Bold",
		FontSize:  16,
	}

	expected := "Generate a vertical 9:16 image. Background should show Mountains as the location, " +
		"Natural as the scene, and follow Photorealistic styling. Center the quote \"Hello\" within " +
		"a safe 9:16 frame, using a Bold font style at roughly 16pt. Add a subtle shadow or outline " +
		"if needed to keep the words crisp against the background. Ensure the text fits comfortably " +
		"and completely in the 9:16 center, avoiding the top/bottom 15%. Balance color, lighting, " +
		"and depth. Return only the image."

	if got := BuildPrompt("Hello", settings); got != expected {
		t.Fatalf("prompt mismatch:\n got: %s\nwant: %s", got, expected)
	}
}

func TestBuildPrompt_IsPure(t *testing.T) {
	settings := preferences.CustomizationSettings{
		Location:  "Coast",
		Scene:     "Stormy",
		Style:     "Oil painting",
		FontStyle: "Serif",
		FontSize:  24,
	}

	first := BuildPrompt("Carpe diem", settings)
	second := BuildPrompt("Carpe diem", settings)
	if first != second {
		t.Fatalf("identical inputs produced different prompts:\n%s\n%s", first, second)
	}
}

func TestBuildPrompt_EmbedsAllInputs(t *testing.T) {
	settings := preferences.CustomizationSettings{
		Location:  "Desert",
		Scene:     "Dunes",
		Style:     "Minimalist",
		FontStyle: "Italic",
		FontSize:  32,
	}

	prompt := BuildPrompt("Stay curious", settings)
	for _, fragment := range []string{"Desert", "Dunes", "Minimalist", "\"Stay curious\"", "Italic", "32pt"} {
		if !strings.Contains(prompt, fragment) {
			t.Errorf("prompt is missing %q:\n%s", fragment, prompt)
		}
	}
}
