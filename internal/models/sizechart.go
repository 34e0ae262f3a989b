package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// SizeChartCategory selects which measurement row shape a chart carries.
type SizeChartCategory string

const (
	SizeChartTops      SizeChartCategory = "tops"
	SizeChartOuterwear SizeChartCategory = "outerwear"
	SizeChartBottoms   SizeChartCategory = "bottoms"
	SizeChartDresses   SizeChartCategory = "dresses"
	SizeChartShoes     SizeChartCategory = "shoes"
)

// ParseSizeChartCategory maps loose labels ("pants", "jacket", ...) onto the
// closed category set.
func ParseSizeChartCategory(s string) (SizeChartCategory, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tops", "top", "shirt", "shirts", "t-shirt", "tee", "knitwear", "sweater":
		return SizeChartTops, true
	case "outerwear", "jacket", "jackets", "coat", "coats", "hoodie":
		return SizeChartOuterwear, true
	case "bottoms", "bottom", "pants", "trousers", "jeans", "shorts", "skirt", "skirts":
		return SizeChartBottoms, true
	case "dresses", "dress", "jumpsuit":
		return SizeChartDresses, true
	case "shoes", "shoe", "footwear", "sneakers", "boots":
		return SizeChartShoes, true
	}
	return "", false
}

// Measurement is a single chart cell in centimetres. Charts frequently carry
// ranges ("68-72"), so the value is kept as text.
type Measurement string

func (m *Measurement) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*m = Measurement(strings.TrimSpace(s))
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		*m = Measurement(strconv.FormatFloat(f, 'f', -1, 64))
		return nil
	}
	if string(b) == "null" {
		*m = ""
		return nil
	}
	return fmt.Errorf("invalid measurement %s", string(b))
}

// TopsRow is used by tops and outerwear.
type TopsRow struct {
	Size     string      `json:"size"`
	Length   Measurement `json:"length,omitempty"`
	Chest    Measurement `json:"chest,omitempty"`
	Shoulder Measurement `json:"shoulder,omitempty"`
	Sleeve   Measurement `json:"sleeve,omitempty"`
}

type BottomsRow struct {
	Size   string      `json:"size"`
	Waist  Measurement `json:"waist,omitempty"`
	Hip    Measurement `json:"hip,omitempty"`
	Inseam Measurement `json:"inseam,omitempty"`
	Length Measurement `json:"length,omitempty"`
}

type DressRow struct {
	Size   string      `json:"size"`
	Bust   Measurement `json:"bust,omitempty"`
	Waist  Measurement `json:"waist,omitempty"`
	Hip    Measurement `json:"hip,omitempty"`
	Length Measurement `json:"length,omitempty"`
}

type ShoeRow struct {
	Size       string      `json:"size"`
	EU         string      `json:"eu,omitempty"`
	US         string      `json:"us,omitempty"`
	UK         string      `json:"uk,omitempty"`
	CN         string      `json:"cn,omitempty"`
	FootLength Measurement `json:"foot_length,omitempty"`
}

type ModelInfo struct {
	Height string `json:"height,omitempty"`
	Weight string `json:"weight,omitempty"`
	Size   string `json:"size,omitempty"`
}

// SizeChart is a tagged union keyed by Category: exactly one row slice is
// populated, the one that matches the category.
type SizeChart struct {
	Category    SizeChartCategory
	Tops        []TopsRow
	Bottoms     []BottomsRow
	Dresses     []DressRow
	Shoes       []ShoeRow
	ModelInfo   *ModelInfo
	FitNotes    string
	SourceImage string
}

// Len returns the number of measurement rows.
func (c *SizeChart) Len() int {
	switch c.Category {
	case SizeChartTops, SizeChartOuterwear:
		return len(c.Tops)
	case SizeChartBottoms:
		return len(c.Bottoms)
	case SizeChartDresses:
		return len(c.Dresses)
	case SizeChartShoes:
		return len(c.Shoes)
	}
	return 0
}

type sizeChartJSON struct {
	Type        SizeChartCategory `json:"type"`
	Rows        json.RawMessage   `json:"rows"`
	ModelInfo   *ModelInfo        `json:"model_info,omitempty"`
	FitNotes    string            `json:"fit_notes,omitempty"`
	SourceImage string            `json:"source_image,omitempty"`
}

func (c SizeChart) MarshalJSON() ([]byte, error) {
	var rows interface{}
	switch c.Category {
	case SizeChartTops, SizeChartOuterwear:
		rows = c.Tops
	case SizeChartBottoms:
		rows = c.Bottoms
	case SizeChartDresses:
		rows = c.Dresses
	case SizeChartShoes:
		rows = c.Shoes
	default:
		return nil, fmt.Errorf("unknown size chart category %q", c.Category)
	}
	raw, err := json.Marshal(rows)
	if err != nil {
		return nil, err
	}
	return json.Marshal(sizeChartJSON{
		Type:        c.Category,
		Rows:        raw,
		ModelInfo:   c.ModelInfo,
		FitNotes:    c.FitNotes,
		SourceImage: c.SourceImage,
	})
}

func (c *SizeChart) UnmarshalJSON(b []byte) error {
	var aux sizeChartJSON
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	category, ok := ParseSizeChartCategory(string(aux.Type))
	if !ok {
		return fmt.Errorf("unknown size chart category %q", aux.Type)
	}

	out := SizeChart{
		Category:    category,
		ModelInfo:   aux.ModelInfo,
		FitNotes:    aux.FitNotes,
		SourceImage: aux.SourceImage,
	}
	if len(aux.Rows) > 0 && string(aux.Rows) != "null" {
		var err error
		switch category {
		case SizeChartTops, SizeChartOuterwear:
			err = json.Unmarshal(aux.Rows, &out.Tops)
		case SizeChartBottoms:
			err = json.Unmarshal(aux.Rows, &out.Bottoms)
		case SizeChartDresses:
			err = json.Unmarshal(aux.Rows, &out.Dresses)
		case SizeChartShoes:
			err = json.Unmarshal(aux.Rows, &out.Shoes)
		}
		if err != nil {
			return fmt.Errorf("invalid %s rows: %w", category, err)
		}
	}
	*c = out
	return nil
}
