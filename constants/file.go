package constants

import "strings"

// FileKind classifies a source file by its extension.
type FileKind int

const (
	KindUnsupported FileKind = iota
	KindImage
	KindDocument
)

func (k FileKind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindDocument:
		return "document"
	default:
		return "unsupported"
	}
}

// DefaultImageExtensions holds the image extensions routed to vision OCR.
var DefaultImageExtensions = []string{"jpg", "jpeg", "png"}

// DefaultDocumentExtensions holds the extensions carrying an embedded text layer.
var DefaultDocumentExtensions = []string{"pdf"}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// ExtSet builds a lookup set from a list of extensions, normalizing each entry.
func ExtSet(exts []string) map[string]struct{} {
	set := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		set[NormalizeExt(e)] = struct{}{}
	}
	return set
}

// Classify maps an extension to a FileKind given the configured sets.
func Classify(ext string, images, documents map[string]struct{}) FileKind {
	ext = NormalizeExt(ext)
	if _, ok := images[ext]; ok {
		return KindImage
	}
	if _, ok := documents[ext]; ok {
		return KindDocument
	}
	return KindUnsupported
}
