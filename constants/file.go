package constants

import (
	"sort"
	"strings"
)

// FileTypes holds the document formats the readers understand.
var FileTypes = []string{"PDF", "DOCX", "TXT"}

// AllowedExtensions holds the file extensions accepted for extraction.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"docx": {},
	"txt":  {},
}

// AllowedContentTypes mirrors AllowedExtensions for multipart uploads.
var AllowedContentTypes = map[string]string{
	"application/pdf": "pdf",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": "docx",
	"text/plain": "txt",
}

// SourceTypes lists the dotted, lowercase extensions recorded as a file's
// source type.
func SourceTypes() []string {
	out := make([]string, 0, len(AllowedExtensions))
	for ext := range AllowedExtensions {
		out = append(out, "."+ext)
	}
	sort.Strings(out)
	return out
}

// OutputSuffixes are the generated artifacts the cleanup sweeper may remove.
var OutputSuffixes = []string{".xlsx", ".csv", ".json", ".pdf", ".docx", ".txt"}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

// IsAllowedExt reports whether ext (with or without the dot) is supported.
func IsAllowedExt(ext string) bool {
	_, ok := AllowedExtensions[NormalizeExt(ext)]
	return ok
}

// IsAllowedContentType accepts the known document types. Parameters such as
// "; charset=utf-8" are ignored, and an empty or generic octet-stream type defers
// to the extension check.
func IsAllowedContentType(contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if ct == "" || ct == "application/octet-stream" {
		return true
	}
	_, ok := AllowedContentTypes[ct]
	return ok
}
