package termin

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSpec(t *testing.T) {
	tests := []struct {
		raw     string
		kind    SpecKind
		percent string
		err     bool
	}{
		{raw: "50%", kind: KindPercentage, percent: "50"},
		{raw: "  30 % ", kind: KindPercentage, percent: "30"},
		{raw: "12.5%", kind: KindPercentage, percent: "12.5"},
		{raw: "12,5", kind: KindPercentage, percent: "12.5"},
		{raw: "40", kind: KindPercentage, percent: "40"},
		{raw: "DP", kind: KindDownPayment},
		{raw: " dp ", kind: KindDownPayment},
		{raw: "Pelunasan", kind: KindRemainder},
		{raw: "REMAINDER", kind: KindRemainder},
		{raw: "", kind: KindManual},
		{raw: "   ", kind: KindManual},
		{raw: "abc", kind: KindManual, err: true},
		{raw: "5 juta", kind: KindManual, err: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := ParseSpec(tt.raw)
			assert.Equal(t, tt.kind, got.Kind)
			assert.Equal(t, tt.raw, got.Raw)
			if tt.percent != "" {
				assert.Equal(t, tt.percent, got.Percent.String())
			}
			if tt.err {
				assert.ErrorIs(t, got.Err, ErrUnparseableSpec)
			} else {
				assert.NoError(t, got.Err)
			}
		})
	}
}

func TestWarnings(t *testing.T) {
	ms := specs("DP", "oops", "50%", "")

	assert.Empty(t, Warnings(ms, CategoryDesign)[1:])
	assert.Len(t, Warnings(ms, CategoryDesign), 1)

	w := Warnings(ms, CategoryCivil)
	if assert.Len(t, w, 2) {
		assert.Equal(t, 0, w[0].Index)
		assert.Equal(t, 1, w[1].Index)
		assert.Equal(t, "oops", w[1].Spec)
	}
}

func TestTemplate(t *testing.T) {
	assert.Len(t, Template(CategoryDesign), 4)
	assert.Len(t, Template(CategoryCivil), 5)
	assert.Len(t, Template(CategoryInterior), 3)

	unknown := Template(Category("landscape"))
	if assert.Len(t, unknown, 1) {
		assert.Equal(t, "", unknown[0].Spec)
		assert.True(t, unknown[0].Amount.IsZero())
	}

	d := Template(CategoryDesign)
	assert.Equal(t, "Termin 1", d[0].Label)
	assert.Equal(t, "Pelunasan", d[3].Spec)
	assert.Equal(t, StatusUnset, d[0].Status)

	// Fresh slice every call.
	d[0].Spec = "changed"
	assert.Equal(t, "DP", Template(CategoryDesign)[0].Spec)
}

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory(" Civil ")
	assert.NoError(t, err)
	assert.Equal(t, CategoryCivil, c)

	_, err = ParseCategory("landscape")
	var ve ValidationError
	assert.ErrorAs(t, err, &ve)
	assert.Equal(t, "CATEGORY_INVALID", ve.Code)
}
