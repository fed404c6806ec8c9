package service

import (
	"fmt"
	"strings"

	"github.com/timmy/thumblify/internal/domain"
)

// stylePrompts maps each thumbnail style to the descriptive phrase injected
// into the provider prompt.
var stylePrompts = map[string]string{
	domain.StyleBoldGraphic:    "bold, high-contrast YouTube thumbnail with thick outlines and punchy graphic shapes",
	domain.StyleTechFuturistic: "sleek futuristic tech thumbnail with glowing accents, circuit motifs and a dark digital backdrop",
	domain.StyleMinimalist:     "clean minimalist thumbnail with generous negative space and a single strong focal point",
	domain.StylePhotorealistic: "photorealistic thumbnail with cinematic lighting and sharp, lifelike detail",
	domain.StyleIllustrated:    "hand-illustrated thumbnail with expressive linework and rich painterly texture",
}

// colorSchemeDescriptions maps each color scheme id to its prompt phrase.
var colorSchemeDescriptions = map[string]string{
	"vibrant":    "vibrant, highly saturated",
	"sunset":     "warm sunset orange and pink",
	"forest":     "deep forest green",
	"neon":       "electric neon",
	"purple":     "rich purple and violet",
	"monochrome": "striking monochrome",
	"ocean":      "cool ocean blue",
	"pastel":     "soft pastel",
}

// ValidColorScheme reports whether id names a known color scheme.
func ValidColorScheme(id string) bool {
	_, ok := colorSchemeDescriptions[id]
	return ok
}

// BuildPrompt deterministically composes the provider prompt from the request
// fields. No side effects; the same input always yields the same prompt.
func BuildPrompt(in GenerateInput) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Create a %s for: %q.", stylePrompts[in.Style], in.Title)

	if in.ColorScheme != "" {
		fmt.Fprintf(&b, " Use a %s color scheme.", colorSchemeDescriptions[in.ColorScheme])
	}

	if in.Prompt != "" {
		fmt.Fprintf(&b, " Additional details: %s.", in.Prompt)
	}

	fmt.Fprintf(&b, " The thumbnail should be %s, visually stunning, and designed to maximize click-through rate."+
		" Make it bold, professional, and impossible to ignore.", in.AspectRatio)

	return b.String()
}
