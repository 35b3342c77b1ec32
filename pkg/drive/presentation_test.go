package drive

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppearanceFor(t *testing.T) {
	tests := []struct {
		name     string
		mimeType string
		fileType FileType
		icon     string
		color    string
	}{
		{"Folder", "", TypeFolder, "📁", "#4285f4"},
		{"FolderIgnoresMime", "image/png", TypeFolder, "📁", "#4285f4"},
		{"Image", "image/png", TypeFile, "🖼️", "#34a853"},
		{"Video", "video/mp4", TypeFile, "🎥", "#fbbc05"},
		{"Audio", "audio/mpeg", TypeFile, "🎵", "#9c27b0"},
		{"PDF", "application/pdf", TypeFile, "📄", "#ea4335"},
		{"WordDocument", "application/msword", TypeFile, "📝", "#4285f4"},
		{"Spreadsheet", "application/vnd.ms-excel", TypeFile, "📊", "#34a853"},
		{"Presentation", "application/vnd.ms-powerpoint", TypeFile, "📊", "#ea4335"},
		{"Archive", "application/zip", TypeFile, "🗜️", "#607d8b"},
		{"PlainText", "text/plain", TypeFile, "📝", "#6b7280"},
		{"UnknownFallsBack", "application/octet-stream", TypeFile, "📄", "#6b7280"},
		{"EmptyMimeFallsBack", "", TypeFile, "📄", "#6b7280"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AppearanceFor(tt.mimeType, tt.fileType)
			assert.Equal(t, tt.icon, got.Icon)
			assert.Equal(t, tt.color, got.Color)
		})
	}
}
