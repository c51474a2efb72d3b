// Package naming derives the canonical output filename for a batch item.
package naming

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"photo-sku-backend/internal/models"
)

// OutputExtension is the format the background-removal service always returns.
const OutputExtension = "jpg"

var skuPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidSKU reports whether sku is safe to use as a filename component.
func ValidSKU(sku string) bool {
	return skuPattern.MatchString(sku)
}

// AssignName returns "{sku}_{seq}.{ext}" with seq zero-padded to at least three
// digits. Images always get OutputExtension; videos keep the extension of
// originalName.
func AssignName(sku string, seq int, kind models.MediaKind, originalName string) (string, error) {
	if !ValidSKU(sku) {
		return "", fmt.Errorf("invalid sku %q", sku)
	}
	if seq < 1 {
		return "", fmt.Errorf("sequence number must be >= 1, got %d", seq)
	}

	base := fmt.Sprintf("%s_%03d", sku, seq)
	switch kind {
	case models.KindImage:
		return base + "." + OutputExtension, nil
	case models.KindVideo:
		ext := strings.TrimPrefix(filepath.Ext(originalName), ".")
		if ext == "" {
			return base, nil
		}
		return base + "." + ext, nil
	default:
		return "", fmt.Errorf("unknown media kind %q", kind)
	}
}
