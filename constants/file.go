package constants

import "strings"

// Source formats understood by the preprocessor.
const (
	IMAGE = "IMAGE"
	HEIC  = "HEIC"
	PDF   = "PDF"
)

// DefaultReceiptExtensions holds the default extension filter for batch discovery.
var DefaultReceiptExtensions = []string{"jpg", "jpeg", "png", "heic", "heif", "pdf"}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

// IsHEICExt reports whether ext is a HEIC/HEIF extension.
func IsHEICExt(ext string) bool {
	switch NormalizeExt(ext) {
	case "heic", "heif":
		return true
	}
	return false
}

// MapExtToFormat maps a file extension to one of IMAGE, HEIC or PDF. Unknown extensions map to "".
func MapExtToFormat(ext string) string {
	switch NormalizeExt(ext) {
	case "pdf":
		return PDF
	case "heic", "heif":
		return HEIC
	case "jpg", "jpeg", "png", "gif":
		return IMAGE
	default:
		return ""
	}
}

// ExtSet builds a lookup set from a list of extensions, normalizing each entry.
func ExtSet(exts []string) map[string]struct{} {
	out := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		if e = NormalizeExt(e); e != "" {
			out[e] = struct{}{}
		}
	}
	return out
}
