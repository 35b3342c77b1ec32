package drive

import "strings"

// Appearance is the derived UI metadata for a file item: a display icon
// and a color token keyed by MIME type.
type Appearance struct {
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

// appearanceRule matches a MIME type by substring. Rules are evaluated
// in order and the first match wins; order matters because the patterns
// overlap (e.g. "presentation" also contains "sheet"-adjacent vendor
// strings in some registries).
type appearanceRule struct {
	patterns []string
	look     Appearance
}

var (
	folderAppearance  = Appearance{Icon: "📁", Color: "#4285f4"}
	defaultAppearance = Appearance{Icon: "📄", Color: "#6b7280"}

	appearanceRules = []appearanceRule{
		{patterns: []string{"image/"}, look: Appearance{Icon: "🖼️", Color: "#34a853"}},
		{patterns: []string{"video/"}, look: Appearance{Icon: "🎥", Color: "#fbbc05"}},
		{patterns: []string{"audio/"}, look: Appearance{Icon: "🎵", Color: "#9c27b0"}},
		{patterns: []string{"pdf"}, look: Appearance{Icon: "📄", Color: "#ea4335"}},
		{patterns: []string{"word", "doc"}, look: Appearance{Icon: "📝", Color: "#4285f4"}},
		{patterns: []string{"sheet", "excel"}, look: Appearance{Icon: "📊", Color: "#34a853"}},
		{patterns: []string{"presentation", "powerpoint"}, look: Appearance{Icon: "📊", Color: "#ea4335"}},
		{patterns: []string{"zip", "archive"}, look: Appearance{Icon: "🗜️", Color: "#607d8b"}},
		{patterns: []string{"text"}, look: Appearance{Icon: "📝", Color: "#6b7280"}},
	}
)

// AppearanceFor maps a MIME type and item type to display metadata.
//
// Pure function: same inputs always produce the same output. Folders are
// checked before any MIME rule since their MIME type is irrelevant.
func AppearanceFor(mimeType string, fileType FileType) Appearance {
	if fileType == TypeFolder {
		return folderAppearance
	}
	if mimeType == "" {
		return defaultAppearance
	}

	for _, rule := range appearanceRules {
		for _, pattern := range rule.patterns {
			if matchAppearance(mimeType, pattern) {
				return rule.look
			}
		}
	}
	return defaultAppearance
}

func matchAppearance(mimeType, pattern string) bool {
	// Prefix patterns ("image/") anchor at the start; bare words match
	// anywhere in the MIME string, mirroring how registries embed format
	// names ("application/vnd...wordprocessingml...").
	if strings.HasSuffix(pattern, "/") {
		return strings.HasPrefix(mimeType, pattern)
	}
	return strings.Contains(mimeType, pattern)
}
