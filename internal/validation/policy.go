package validation

import "strings"

var defaultAllowed = []string{
	"pdf", "doc", "docx", "txt", "zip", "rar",
	"jpg", "jpeg", "png", "ppt", "pptx",
}

// Executable and script types that are never accepted.
var defaultDenied = []string{
	"exe", "bat", "cmd", "sh", "bash", "ps1", "msi", "app",
	"jar", "class", "py", "rb", "php", "jsp", "asp", "aspx",
	"js", "vbs", "com", "scr", "dll", "sys", "bin",
}

var defaultMIMETypes = map[string][]string{
	"pdf":  {"application/pdf"},
	"doc":  {"application/msword"},
	"docx": {"application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
	"txt":  {"text/plain"},
	"zip":  {"application/zip", "application/x-zip-compressed"},
	"rar":  {"application/x-rar-compressed", "application/vnd.rar"},
	"jpg":  {"image/jpeg"},
	"jpeg": {"image/jpeg"},
	"png":  {"image/png"},
	"ppt":  {"application/vnd.ms-powerpoint"},
	"pptx": {"application/vnd.openxmlformats-officedocument.presentationml.presentation"},
}

// Policy holds the extension allow-list, deny-list and the extension to MIME
// table. A Policy is never modified after construction.
type Policy struct {
	allowed   []string
	allowSet  map[string]struct{}
	denySet   map[string]struct{}
	mimeTypes map[string][]string
}

// NewPolicy builds a policy from the given lists. Extensions are matched
// case-insensitively.
func NewPolicy(allowed, denied []string, mimeTypes map[string][]string) *Policy {
	p := &Policy{
		allowSet:  make(map[string]struct{}, len(allowed)),
		denySet:   make(map[string]struct{}, len(denied)),
		mimeTypes: make(map[string][]string, len(mimeTypes)),
	}
	for _, ext := range allowed {
		ext = strings.ToLower(ext)
		if _, dup := p.allowSet[ext]; dup {
			continue
		}
		p.allowSet[ext] = struct{}{}
		p.allowed = append(p.allowed, ext)
	}
	for _, ext := range denied {
		p.denySet[strings.ToLower(ext)] = struct{}{}
	}
	for ext, types := range mimeTypes {
		normalized := make([]string, 0, len(types))
		for _, t := range types {
			normalized = append(normalized, strings.ToLower(t))
		}
		p.mimeTypes[strings.ToLower(ext)] = normalized
	}
	return p
}

var defaultPolicy = NewPolicy(defaultAllowed, defaultDenied, defaultMIMETypes)

// DefaultPolicy returns the coursework upload policy.
func DefaultPolicy() *Policy {
	return defaultPolicy
}

func (p *Policy) Denied(ext string) bool {
	_, ok := p.denySet[strings.ToLower(ext)]
	return ok
}

func (p *Policy) Allowed(ext string) bool {
	_, ok := p.allowSet[strings.ToLower(ext)]
	return ok
}

// AllowedExtensions returns the allow-list in declaration order.
func (p *Policy) AllowedExtensions() []string {
	out := make([]string, len(p.allowed))
	copy(out, p.allowed)
	return out
}

// ContentTypeFor returns the primary MIME type for ext, or an empty string.
func (p *Policy) ContentTypeFor(ext string) string {
	types := p.mimeTypes[strings.ToLower(ext)]
	if len(types) == 0 {
		return ""
	}
	return types[0]
}

// ContentTypeMatches reports whether the declared media type is consistent
// with ext. Extensions missing from the table always match.
func (p *Policy) ContentTypeMatches(ext, mediaType string) bool {
	types, ok := p.mimeTypes[strings.ToLower(ext)]
	if !ok {
		return true
	}
	for _, t := range types {
		if t == mediaType {
			return true
		}
	}
	return false
}
