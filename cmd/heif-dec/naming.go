package main

import (
	"path/filepath"
	"strconv"
	"strings"
)

// outputName inserts the suffix and, for multi-image containers, a 1-based
// index before the file extension: out.png -> out-depth-2.png.
func outputName(base, suffix string, index, total int) string {
	ext := filepath.Ext(base)
	stem := base[:len(base)-len(ext)]
	if suffix != "" {
		stem += "-" + suffix
	}
	if total > 1 {
		stem += "-" + strconv.Itoa(index+1)
	}
	return stem + ext
}

// sanitizeAuxType turns an auxiliary image type URN into a filename-safe
// suffix. Anything outside [A-Za-z0-9._-] becomes an underscore.
func sanitizeAuxType(typ string) string {
	var b strings.Builder
	b.Grow(len(typ))
	for _, r := range typ {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
