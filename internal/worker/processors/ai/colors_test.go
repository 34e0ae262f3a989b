package ai

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestCleanColor(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"灰-现货", "灰"},
		{"Gray - In Stock", "Gray"},
		{"black (pre-order, ships in 7 days)", "Black"},
		{"【预售】杏色 15天内发货", "杏色"},
		{"navy blue", "Navy Blue"},
		{"尺码表", ""},
		{"Size Guide - see description", ""},
		{"联系客服备注", ""},
		{"", ""},
		{"ȺȺȺȺȺȺȺȺȺȺ presale", "ȺȺȺȺȺȺȺȺȺȺ"},
		{"İİİİİİ PRESALE", "İİİİİİ"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := CleanColor(tt.in)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}

func TestCleanSize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"S", "S"},
		{"m码", "M"},
		{"XL（建议120-135斤）", "XL"},
		{"均码", "One Size"},
		{"L 现货", "L"},
		{"38", "38"},
		{"xxl [presale]", "XXL"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanSize(tt.in))
		})
	}
}

func TestGuessStandardColor(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Light Gray", "Gray"},
		{"Grey Melange", "Gray"},
		{"Navy Blue", "Navy"},
		{"ivory", "Cream"},
		{"Tan", "Khaki"},
		{"Dusty Rose", "Pink"},
		{"BLACK", "Black"},
		{"灰色", "Gray"},
		{"Sunset", "Multicolor"},
		{"", "Multicolor"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, GuessStandardColor(tt.in))
		})
	}
}

func TestCanonicalStandardColor(t *testing.T) {
	c, ok := CanonicalStandardColor(" navy ")
	assert.True(t, ok)
	assert.Equal(t, "Navy", c)

	_, ok = CanonicalStandardColor("Teal")
	assert.False(t, ok)
}
