package kvstore

import (
	"strings"

	"github.com/datatrails/go-datatrails-kvstore/auth"
)

// PhysicalKey is the backend key for a logical key in a credential's
// namespace.
func PhysicalKey(credential, key string) string {
	return credential + auth.Delimiter + key
}

// LogicalKey strips the namespace from a physical key. It fails for keys
// that do not belong to the namespace.
func LogicalKey(credential, physical string) (string, bool) {
	return strings.CutPrefix(physical, credential+auth.Delimiter)
}

// matchPattern is the SCAN MATCH pattern selecting every key in the
// namespace whose logical key starts with prefix. Glob metacharacters are
// escaped so that both parts match literally.
func matchPattern(credential, prefix string) string {
	return escapeGlob(credential) + auth.Delimiter + escapeGlob(prefix) + "*"
}

func escapeGlob(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
