package marketplace

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

var (
	decorativeMarkers = []string{"spaceball", "spacer", "blank.", "icon", "logo", "loading", "transparent", "/tps/", "s.gif"}
	tinySizeSuffix    = regexp.MustCompile(`[_-](\d{1,4})x(\d{1,4})(?:q\d+)?\.(?:jpg|jpeg|png|gif|webp)`)
)

// ExtractDescriptionImages returns the <img> URLs of a description in
// first-seen order, deduplicated, without spacers and icons. The markup is
// tokenized only, never rendered.
func ExtractDescriptionImages(desc string) []string {
	if strings.TrimSpace(desc) == "" {
		return nil
	}

	var out []string
	seen := make(map[string]bool)
	z := html.NewTokenizer(strings.NewReader(desc))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return out
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}
		tok := z.Token()
		if tok.Data != "img" {
			continue
		}

		var src, lazy string
		for _, a := range tok.Attr {
			switch a.Key {
			case "src":
				src = a.Val
			case "data-src", "data-ks-lazyload", "data-original":
				lazy = a.Val
			}
		}
		if lazy != "" {
			src = lazy
		}

		u := normalizeURL(src)
		if u == "" || seen[u] || isDecorative(u) {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
}

func isDecorative(u string) bool {
	lu := strings.ToLower(u)
	if strings.HasSuffix(lu, ".gif") {
		return true
	}
	for _, m := range decorativeMarkers {
		if strings.Contains(lu, m) {
			return true
		}
	}
	if m := tinySizeSuffix.FindStringSubmatch(lu); m != nil {
		w, _ := strconv.Atoi(m[1])
		h, _ := strconv.Atoi(m[2])
		if w <= 50 || h <= 50 {
			return true
		}
	}
	return false
}
