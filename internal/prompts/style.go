// Package prompts turns a décor style into the instruction text sent to the
// image generation backends.
package prompts

import "strings"

type Style string

const (
	StyleMidCenturyModern Style = "mid_century_modern"
	StyleScandinavian     Style = "scandinavian"
	StyleIndustrial       Style = "industrial"
	StyleBohemian         Style = "bohemian"
	StyleModernFarmhouse  Style = "modern_farmhouse"
	StyleJapandi          Style = "japandi"
	StyleTraditional      Style = "traditional"
	StyleContemporary     Style = "contemporary"
	StyleCoastal          Style = "coastal"
	StyleEclectic         Style = "eclectic"
	StyleTransitional     Style = "transitional"
	StyleGeneric          Style = "generic"
)

// BasePrompt prefixes every instruction.
const BasePrompt = "Generate an image of this room but filled with furniture. Don't modify the walls/structure of the room, but you can put things on the walls and floor."

const genericClause = "Add furniture with a sleek and modern design that would be appropriate for the space."

var styleClauses = map[Style]string{
	StyleMidCenturyModern: "Style this space with Mid-Century Modern design featuring clean lines, tapered legs, warm wood tones, and pops of retro colors. Include minimalist furniture from the 1950s and 60s with a futuristic twist. Focus on sleek geometric shapes and iconic pieces.",
	StyleScandinavian:     "Create a Scandinavian-style space with a light, airy atmosphere using neutral tones, natural textures, and simple functionality. Feature light woods, cozy textiles, and minimal clutter. Emphasize hygge and understated elegance.",
	StyleIndustrial:       "Design with Industrial style featuring exposed brick, metal pipes, concrete floors, and reclaimed wood. Create raw, unfinished textures that give it a warehouse or loft-like vibe. Include vintage industrial lighting and furniture.",
	StyleBohemian:         "Style as Bohemian (Boho) with eclectic and layered design using bold colors, global patterns, and a mix of vintage and handmade items. Include plenty of plants, textiles, floor cushions, and relaxed furniture. Create a free-spirited, artistic atmosphere.",
	StyleModernFarmhouse:  "Create a Modern Farmhouse style with a cozy blend of rustic charm and modern polish. Use white walls, black accents, shiplap, distressed wood, and soft textures. Include vintage farmhouse elements with contemporary comfort.",
	StyleJapandi:          "Design with Japandi style, a fusion of Japanese minimalism and Scandinavian coziness. Focus on clean lines, low furniture, natural elements, and serene neutral tones. Emphasize simplicity, functionality, and zen-like tranquility.",
	StyleTraditional:      "Style with Traditional design featuring classic and elegant elements with symmetry, rich colors, ornate furniture, and timeless decor. Include crown moldings, antique-style pieces, layered drapes, and sophisticated details.",
	StyleContemporary:     "Create a Contemporary space with sleek and up-to-date design featuring smooth surfaces, neutral palettes, and geometric forms. Include open spaces, statement lighting, and current design trends with clean sophistication.",
	StyleCoastal:          "Design with Coastal style that's light, breezy, and inspired by the beach. Use whites, blues, natural fibers, and airy layouts for a relaxed seaside feel. Include nautical elements and weathered textures.",
	StyleEclectic:         "Style as Eclectic with bold and personal design that mixes different eras, colors, and textures in a curated yet cohesive way. No strict rules, just strong personality and creative combinations that tell a story.",
	StyleTransitional:     "Create a Transitional style with a balanced blend of traditional and contemporary elements. Use neutral colors, soft curves, and classic silhouettes with modern touches. Balance comfort with sophistication.",
}

// Styles lists every named style, generic last.
func Styles() []Style {
	return []Style{
		StyleMidCenturyModern, StyleScandinavian, StyleIndustrial, StyleBohemian,
		StyleModernFarmhouse, StyleJapandi, StyleTraditional, StyleContemporary,
		StyleCoastal, StyleEclectic, StyleTransitional, StyleGeneric,
	}
}

// ParseStyle normalizes user input. Unknown values map to StyleGeneric.
func ParseStyle(s string) Style {
	normalized := strings.ToLower(strings.TrimSpace(s))
	normalized = strings.NewReplacer("-", "_", " ", "_").Replace(normalized)
	style := Style(normalized)
	if _, ok := styleClauses[style]; ok {
		return style
	}
	return StyleGeneric
}

// Build returns the instruction for style. Unknown styles get the generic clause.
func Build(style Style) string {
	clause, ok := styleClauses[style]
	if !ok {
		clause = genericClause
	}
	return BasePrompt + " " + clause
}

// Title renders the style for display, e.g. "Mid Century Modern".
func (s Style) Title() string {
	words := strings.Split(string(s), "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
