package ai

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"marketbridge/internal/worker/processors/validation"
)

// StandardColors is the closed palette every variant color is mapped onto.
var StandardColors = []string{
	"Black", "White", "Gray", "Beige", "Brown", "Red", "Pink", "Orange",
	"Yellow", "Green", "Blue", "Navy", "Purple", "Cream", "Khaki", "Multicolor",
}

const catchAllColor = "Multicolor"

// matchOrder lists palette entries more specific ones first, so "Navy Blue"
// lands on Navy rather than Blue.
var matchOrder = []string{
	"Multicolor", "Navy", "Khaki", "Cream", "Beige", "Black", "White", "Gray",
	"Brown", "Red", "Pink", "Orange", "Yellow", "Green", "Blue", "Purple",
}

var colorSynonyms = map[string]string{
	"grey":      "Gray",
	"charcoal":  "Gray",
	"silver":    "Gray",
	"ivory":     "Cream",
	"offwhite":  "Cream",
	"tan":       "Khaki",
	"camel":     "Khaki",
	"apricot":   "Beige",
	"oatmeal":   "Beige",
	"nude":      "Beige",
	"coffee":    "Brown",
	"chocolate": "Brown",
	"mocha":     "Brown",
	"burgundy":  "Red",
	"wine":      "Red",
	"maroon":    "Red",
	"rose":      "Pink",
	"violet":    "Purple",
	"lavender":  "Purple",
	"lilac":     "Purple",
	"olive":     "Green",
	"army":      "Green",
	"mint":      "Green",
	"denim":     "Blue",
	"sky":       "Blue",
	"gold":      "Yellow",
	"mustard":   "Yellow",
	"multi":     "Multicolor",
	"print":     "Multicolor",
	"striped":   "Multicolor",
}

// Source-language keywords, checked by substring in this order.
var cjkColorKeywords = []struct {
	keyword string
	color   string
}{
	{"藏青", "Navy"}, {"卡其", "Khaki"}, {"米白", "Cream"}, {"奶白", "Cream"},
	{"杏", "Beige"}, {"米", "Beige"}, {"黑", "Black"}, {"白", "White"},
	{"灰", "Gray"}, {"棕", "Brown"}, {"咖", "Brown"}, {"驼", "Khaki"},
	{"红", "Red"}, {"粉", "Pink"}, {"橙", "Orange"}, {"黄", "Yellow"},
	{"绿", "Green"}, {"蓝", "Blue"}, {"紫", "Purple"}, {"花", "Multicolor"},
}

var (
	// Bracketed asides in ASCII or full-width punctuation.
	parentheticalRe = regexp.MustCompile(`[(（\[【〔{][^)）\]】〕}]*[)）\]】〕}]`)
	shipDaysRe      = regexp.MustCompile(`(?i)(\d+\s*(天|日)\s*(内)?\s*(发货|发出)|ships?\s+(with)?in\s+\d+\s*(-\s*\d+\s*)?(business\s+)?days?|\d+\s*-\s*\d+\s*days?\s+(shipping|delivery)|delivery\s+in\s+\d+\s*days?)`)
	fillerTokens    = []string{
		"现货", "现貨", "预售", "預售", "预定", "期货", "秒发", "速发", "当天发", "不退换",
		"in stock", "in-stock", "instock", "presale", "pre-sale", "pre-order", "preorder",
		"spot goods", "ready stock", "limited",
	}
	fillerRe        = fillerPattern(fillerTokens)
	trimSet         = " \t-_/|,，、:：;；.·~*+"
)

// stripFiller removes stock, presale and shipping-time annotations and
// bracketed asides.
func stripFiller(s string) string {
	s = parentheticalRe.ReplaceAllString(s, " ")
	s = shipDaysRe.ReplaceAllString(s, " ")
	s = fillerRe.ReplaceAllString(s, " ")
	s = strings.Join(strings.Fields(s), " ")
	return strings.Trim(s, trimSet)
}

// fillerPattern matches any token case-insensitively, longest first.
func fillerPattern(tokens []string) *regexp.Regexp {
	sorted := append([]string(nil), tokens...)
	sort.SliceStable(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })
	quoted := make([]string, len(sorted))
	for i, t := range sorted {
		quoted[i] = regexp.QuoteMeta(t)
	}
	return regexp.MustCompile(`(?i)(` + strings.Join(quoted, "|") + `)`)
}

// CleanColor normalizes a color label. Size-guide sentinels come back as ""
// so the variant gets excluded later.
func CleanColor(s string) string {
	if validation.IsSizeGuideSentinel(s) {
		return ""
	}
	c := stripFiller(s)
	if validation.IsSizeGuideSentinel(c) {
		return ""
	}
	return titleCase(c)
}

// CleanSize normalizes a size label.
func CleanSize(s string) string {
	c := stripFiller(s)
	switch strings.ToLower(c) {
	case "均码", "free", "free size", "freesize", "one size", "onesize", "os":
		return "One Size"
	}
	c = strings.TrimSuffix(c, "码")
	c = strings.Trim(c, trimSet)
	if isLatinSize(c) {
		c = strings.ToUpper(c)
	}
	return c
}

func isLatinSize(s string) bool {
	if s == "" || len(s) > 5 {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
		if r > unicode.MaxASCII {
			return false
		}
	}
	return strings.ContainsAny(strings.ToLower(s), "smlx")
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		if len(r) > 0 && r[0] <= unicode.MaxASCII {
			words[i] = string(unicode.ToUpper(r[0])) + strings.ToLower(string(r[1:]))
		}
	}
	return strings.Join(words, " ")
}

// CanonicalStandardColor returns the palette spelling of s if s names a
// palette entry exactly (case-insensitive).
func CanonicalStandardColor(s string) (string, bool) {
	s = strings.TrimSpace(s)
	for _, c := range StandardColors {
		if strings.EqualFold(c, s) {
			return c, true
		}
	}
	return "", false
}

// GuessStandardColor maps a translated color onto the palette: substring
// match first, then synonyms, then the catch-all bucket.
func GuessStandardColor(color string) string {
	lc := strings.ToLower(color)
	if strings.TrimSpace(lc) == "" {
		return catchAllColor
	}

	for _, c := range matchOrder {
		if strings.Contains(lc, strings.ToLower(c)) {
			return c
		}
	}

	compact := strings.ReplaceAll(strings.ReplaceAll(lc, "-", ""), " ", "")
	if std, ok := colorSynonyms[compact]; ok {
		return std
	}
	words := strings.FieldsFunc(lc, func(r rune) bool { return !unicode.IsLetter(r) })
	for _, w := range words {
		if std, ok := colorSynonyms[w]; ok {
			return std
		}
	}

	for _, k := range cjkColorKeywords {
		if strings.Contains(color, k.keyword) {
			return k.color
		}
	}
	return catchAllColor
}
