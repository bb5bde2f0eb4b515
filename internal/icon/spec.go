package icon

import (
	"path/filepath"
	"strings"
)

// SourceKind identifies which form an icon spec string takes.
type SourceKind int

const (
	// SourcePath is an absolute file path to a PNG on disk.
	SourcePath SourceKind = iota
	// SourcePlaceholder is a "!text" spec: a generated placeholder tile.
	SourcePlaceholder
	// SourceInline is a "data:image/png;base64,..." spec with the image
	// bytes embedded.
	SourceInline
	// SourceAsset is a bare relative name, resolved against the
	// configured asset directory. Legacy form.
	SourceAsset
)

// inlinePrefix marks an inline base64 PNG spec.
const inlinePrefix = "data:image/png;base64,"

// Source is a parsed icon spec.
type Source struct {
	Kind SourceKind

	// Value holds the path, the placeholder text, the base64 payload,
	// or the relative asset name, depending on Kind.
	Value string
}

// ParseSpec classifies an icon spec string into one of the four supported
// forms. The spec mini-language:
//
//	/abs/path/icon.png            absolute file path
//	!Pause                        generated placeholder with text
//	data:image/png;base64,....    inline PNG
//	icon.png                      relative name against the asset dir
func ParseSpec(spec string) Source {
	switch {
	case strings.HasPrefix(spec, inlinePrefix):
		return Source{Kind: SourceInline, Value: spec[len(inlinePrefix):]}
	case strings.HasPrefix(spec, "!"):
		return Source{Kind: SourcePlaceholder, Value: spec[1:]}
	case filepath.IsAbs(spec):
		return Source{Kind: SourcePath, Value: spec}
	default:
		return Source{Kind: SourceAsset, Value: spec}
	}
}
