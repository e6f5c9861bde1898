package core

import (
	"fmt"

	"github.com/jo-hoe/gowall/internal/preferences"
)

// promptTemplate embeds the quote and customization values into fixed layout
// instructions for the generation API. The text is vertically framed at 9:16
// so the later 9:20 crop keeps the quote clear of the trimmed edges.
const promptTemplate = "Generate a vertical 9:16 image. Background should show %s as the location, " +
	"%s as the scene, and follow %s styling. Center the quote \"%s\" within a safe 9:16 frame, " +
	"using a %s font style at roughly %dpt. Add a subtle shadow or outline if needed to keep " +
	"the words crisp against the background. Ensure the text fits comfortably and completely " +
	"in the 9:16 center, avoiding the top/bottom 15%%. Balance color, lighting, and depth. " +
	"Return only the image."

// BuildPrompt is a pure function: identical inputs always produce the
// identical prompt string.
func BuildPrompt(quoteText string, settings preferences.CustomizationSettings) string {
	return fmt.Sprintf(promptTemplate,
		settings.Location, settings.Scene, settings.Style,
		quoteText, settings.FontStyle, settings.FontSize)
}
