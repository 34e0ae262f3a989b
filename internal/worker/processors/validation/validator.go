package validation

import (
	"strings"

	"marketbridge/internal/models"
)

// Phrases marketplace sellers put in the color dimension to point buyers at a
// size guide or to customer service. These are never real colors.
var sizeGuideSentinels = []string{
	"尺码表", "尺码参考", "尺寸表", "尺码对照", "尺码建议", "测量", "联系客服", "咨询客服", "拍下备注", "备注颜色", "请备注",
	"size guide", "size chart", "size reference", "size table", "sizing", "measurement",
	"contact customer service", "contact us", "leave a note", "please note",
}

// IsSizeGuideSentinel reports whether a (raw or cleaned) color value is a
// size-guide placeholder rather than a color.
func IsSizeGuideSentinel(color string) bool {
	lc := strings.ToLower(strings.TrimSpace(color))
	if lc == "" {
		return false
	}
	for _, s := range sizeGuideSentinels {
		if strings.Contains(lc, s) {
			return true
		}
	}
	return false
}

// ValidColor reports whether a cleaned color may back a published variant.
func ValidColor(color string) bool {
	return strings.TrimSpace(color) != "" && !IsSizeGuideSentinel(color)
}

// FilterVariants drops variants with an empty or sentinel color and returns
// the dropped ones separately for logging.
func FilterVariants(variants []models.TranslatedVariant) (kept, dropped []models.TranslatedVariant) {
	for _, v := range variants {
		if ValidColor(v.Color) {
			kept = append(kept, v)
		} else {
			dropped = append(dropped, v)
		}
	}
	return kept, dropped
}
