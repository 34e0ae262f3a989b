package marketplace

import (
	"sort"
	"strings"

	"marketbridge/internal/models"
)

// Strategy recognises one historical response shape. Apply returns nil when
// the item does not look like its shape.
type Strategy struct {
	Name  string
	Apply func(item map[string]interface{}) *models.Listing
}

// Strategies are tried in order; the first non-nil listing wins.
var Strategies = []Strategy{
	{Name: "flat", Apply: normalizeFlat},
	{Name: "wrapped", Apply: normalizeWrapped},
	{Name: "singular", Apply: normalizeSingular},
}

// Normalize locates the item object inside a raw gateway response and runs
// the strategies over it.
func Normalize(raw map[string]interface{}) *models.Listing {
	item := locateItem(raw)
	if item == nil {
		return nil
	}
	for _, s := range Strategies {
		if l := s.Apply(item); l != nil {
			return l
		}
	}
	return nil
}

func locateItem(raw map[string]interface{}) map[string]interface{} {
	candidates := []map[string]interface{}{raw}
	for _, key := range []string{"data", "result", "item_get_response"} {
		if m := asMap(raw[key]); m != nil {
			candidates = append(candidates, m)
		}
	}
	for _, c := range candidates {
		if item := asMap(c["item"]); item != nil {
			return item
		}
	}
	// Some responses put the item fields directly under data.
	for _, c := range candidates[1:] {
		if _, ok := c["title"]; ok {
			return c
		}
	}
	return nil
}

// flat: images is a list of strings and skus is a list of objects with a
// properties array.
func normalizeFlat(item map[string]interface{}) *models.Listing {
	images, ok := item["images"].([]interface{})
	if !ok {
		return nil
	}
	if _, wrapped := item["skus"].(map[string]interface{}); wrapped {
		return nil
	}

	l := baseListing(item)
	seen := make(map[string]bool)
	for _, img := range images {
		l.Images = appendUnique(l.Images, seen, asString(img))
	}
	propNames := parsePropsList(item)
	for _, s := range asSlice(item["skus"]) {
		if sku, ok := parseSKU(asMap(s), l.BasePrice, nil, propNames); ok {
			l.SKUs = append(l.SKUs, sku)
		}
	}
	return l
}

// wrapped: item_imgs.item_img[] objects and skus.sku[] objects, with
// per-property images under prop_imgs.prop_img[].
func normalizeWrapped(item map[string]interface{}) *models.Listing {
	imgWrap := asMap(item["item_imgs"])
	skuWrap := asMap(item["skus"])
	if imgWrap == nil && skuWrap == nil {
		return nil
	}

	l := baseListing(item)
	seen := make(map[string]bool)
	l.Images = appendUnique(l.Images, seen, asString(item["pic_url"]))
	for _, img := range asSlice(firstValue(imgWrap, "item_img", "item_imgs")) {
		l.Images = appendUnique(l.Images, seen, imageURL(img))
	}

	propImages, propNames := parsePropImages(item), parsePropsList(item)
	for _, s := range asSlice(firstValue(skuWrap, "sku", "skus")) {
		if sku, ok := parseSKU(asMap(s), l.BasePrice, propImages, propNames); ok {
			l.SKUs = append(l.SKUs, sku)
		}
	}
	return l
}

// singular: pic_url plus item_img (object or list) and sku (object or list).
func normalizeSingular(item map[string]interface{}) *models.Listing {
	_, hasPic := item["pic_url"]
	_, hasImg := item["item_img"]
	_, hasSKU := item["sku"]
	if !hasPic && !hasImg && !hasSKU {
		return nil
	}

	l := baseListing(item)
	seen := make(map[string]bool)
	l.Images = appendUnique(l.Images, seen, asString(item["pic_url"]))
	for _, img := range asSlice(item["item_img"]) {
		l.Images = appendUnique(l.Images, seen, imageURL(img))
	}
	if img, ok := item["item_img"].(string); ok {
		l.Images = appendUnique(l.Images, seen, img)
	}

	propImages, propNames := parsePropImages(item), parsePropsList(item)
	for _, s := range asSlice(item["sku"]) {
		if sku, ok := parseSKU(asMap(s), l.BasePrice, propImages, propNames); ok {
			l.SKUs = append(l.SKUs, sku)
		}
	}
	return l
}

func baseListing(item map[string]interface{}) *models.Listing {
	desc := firstString(item, "desc", "description", "desc_html")
	l := &models.Listing{
		ItemID:          firstString(item, "num_iid", "item_id", "id"),
		Title:           firstString(item, "title"),
		DescriptionHTML: desc,
		ShopName:        firstString(item, "shop_name", "nick", "seller_nick", "brand"),
		BasePrice:       centsToMajor(firstValue(item, "price", "original_price")),
		Currency:        firstString(item, "currency"),
	}
	if l.Currency == "" {
		l.Currency = "CNY"
	}

	l.DescriptionImages = ExtractDescriptionImages(desc)
	seen := make(map[string]bool, len(l.DescriptionImages))
	for _, u := range l.DescriptionImages {
		seen[u] = true
	}
	for _, img := range asSlice(firstValue(item, "desc_img", "desc_imgs")) {
		if u := imageURL(img); u != "" && !isDecorative(normalizeURL(u)) {
			l.DescriptionImages = appendUnique(l.DescriptionImages, seen, u)
		}
	}
	return l
}

func imageURL(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return firstString(asMap(v), "url", "pic_url", "src")
}

// parsePropImages maps "pid:vid" property keys to their swatch image.
func parsePropImages(item map[string]interface{}) map[string]string {
	out := make(map[string]string)
	wrap := item["prop_imgs"]
	list := asSlice(wrap)
	if m := asMap(wrap); m != nil {
		if inner, ok := m["prop_img"]; ok {
			list = asSlice(inner)
		}
	}
	for _, p := range list {
		pm := asMap(p)
		key := asString(pm["properties"])
		u := normalizeURL(asString(pm["url"]))
		if key != "" && u != "" {
			out[key] = u
		}
	}
	return out
}

// parsePropsList reads the item-level props_list, which maps "pid:vid" keys
// to "name:value" labels.
func parsePropsList(item map[string]interface{}) map[string]string {
	out := make(map[string]string)
	for k, v := range asMap(item["props_list"]) {
		if label := asString(v); label != "" {
			out[strings.TrimSpace(k)] = label
		}
	}
	return out
}

// resolveProps turns a "pid:vid;pid:vid" string into properties through the
// props_list labels. Unknown pairs are skipped.
func resolveProps(pairs string, propNames map[string]string) []models.Property {
	var props []models.Property
	for _, pair := range strings.Split(pairs, ";") {
		label, ok := propNames[strings.TrimSpace(pair)]
		if !ok {
			continue
		}
		name, value, found := strings.Cut(label, ":")
		if !found || name == "" || value == "" {
			continue
		}
		props = append(props, models.Property{Name: name, Value: value})
	}
	return props
}

func parseSKU(m map[string]interface{}, basePrice float64, propImages, propNames map[string]string) (models.SKU, bool) {
	if m == nil {
		return models.SKU{}, false
	}

	sku := models.SKU{
		ID:    firstString(m, "sku_id", "skuId", "id"),
		Stock: asInt(firstValue(m, "quantity", "stock", "amount")),
		Image: normalizeURL(firstString(m, "image", "pic_url", "img")),
	}

	if p := firstValue(m, "price", "sale_price"); p != nil {
		sku.Price = centsToMajor(p)
	}
	if sku.Price == 0 {
		sku.Price = basePrice
	}

	switch props := m["properties"].(type) {
	case []interface{}:
		for _, p := range props {
			pm := asMap(p)
			name, value := asString(pm["name"]), asString(pm["value"])
			if name != "" && value != "" {
				sku.Properties = append(sku.Properties, models.Property{Name: name, Value: value})
			}
		}
	case string:
		if sku.Image == "" {
			for _, pair := range strings.Split(props, ";") {
				if u, ok := propImages[pair]; ok {
					sku.Image = u
					break
				}
			}
		}
	}

	if names := asString(m["properties_name"]); names != "" && len(sku.Properties) == 0 {
		sku.Properties = parsePropertiesName(names)
	}

	if pairs, ok := m["properties"].(string); ok && len(sku.Properties) == 0 {
		sku.Properties = resolveProps(pairs, propNames)
	}

	if props := asMap(m["props"]); props != nil && len(sku.Properties) == 0 {
		keys := make([]string, 0, len(props))
		for k := range props {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			sku.Properties = append(sku.Properties, models.Property{Name: k, Value: asString(props[k])})
		}
	}

	return sku, sku.ID != "" || len(sku.Properties) > 0
}

// parsePropertiesName parses "pid:vid:name:value;pid:vid:name:value". Values
// may themselves contain colons.
func parsePropertiesName(s string) []models.Property {
	var props []models.Property
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		fields := strings.SplitN(part, ":", 4)
		switch len(fields) {
		case 4:
			props = append(props, models.Property{Name: fields[2], Value: fields[3]})
		case 2:
			props = append(props, models.Property{Name: fields[0], Value: fields[1]})
		}
	}
	return props
}
