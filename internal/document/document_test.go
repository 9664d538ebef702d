package document

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studiodesk/internal/termin"
)

var editor = NewEditor(termin.NewCalculator(termin.DesignDownPayment))

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func amounts(d Document) []string {
	out := make([]string, len(d.Milestones))
	for i, m := range d.Milestones {
		out[i] = m.Amount.String()
	}
	return out
}

func TestNewAppliesTemplate(t *testing.T) {
	d := editor.New(KindQuotation, termin.CategoryDesign)
	assert.Equal(t, StatusDraft, d.Status)
	require.Len(t, d.Milestones, 4)
	// Total is zero: DP is still fixed, the remainder floors at zero.
	assert.Equal(t, []string{"2500000", "0", "0", "0"}, amounts(d))

	d = editor.New(KindInvoice, termin.CategoryCivil)
	assert.Len(t, d.Milestones, 5)
	assert.Equal(t, "Termin 5", d.Milestones[4].Label)
}

func TestSetPricingDesign(t *testing.T) {
	d := editor.New(KindInvoice, termin.CategoryDesign)
	d, err := editor.SetPricing(d, dec("100"), dec("150000"), dec("999"))
	require.NoError(t, err)

	assert.Equal(t, "15000000", d.TotalValue.String(), "design total is area x unit price")
	assert.Equal(t, []string{"2500000", "7500000", "4500000", "500000"}, amounts(d))
	assert.True(t, termin.Sum(d.Milestones).Equal(d.TotalValue))
}

func TestSetPricingCivilUsesManualTotal(t *testing.T) {
	d := editor.New(KindInvoice, termin.CategoryCivil)
	d, err := editor.SetPricing(d, dec("100"), dec("150000"), dec("10000000"))
	require.NoError(t, err)

	assert.Equal(t, "10000000", d.TotalValue.String())
	assert.Equal(t, []string{"2000000", "2500000", "2500000", "2000000", "1000000"}, amounts(d))
}

func TestSetPricingRejectsNegative(t *testing.T) {
	d := editor.New(KindInvoice, termin.CategoryCivil)
	_, err := editor.SetPricing(d, decimal.Zero, decimal.Zero, dec("-1"))
	var ve termin.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestSetPricingRoundsManualTotal(t *testing.T) {
	d := editor.New(KindInvoice, termin.CategoryInterior)
	d, err := editor.SetMilestoneSpec(d, 2, "Pelunasan")
	require.NoError(t, err)

	d, err = editor.SetPricing(d, decimal.Zero, decimal.Zero, dec("1000000.7"))
	require.NoError(t, err)

	assert.Equal(t, "1000001", d.TotalValue.String())
	assert.Equal(t, []string{"400000", "300001", "300000"}, amounts(d))
	assert.True(t, termin.Sum(d.Milestones).Equal(d.TotalValue))
}

func TestSetPricingRejectsUnstorableScale(t *testing.T) {
	d := editor.New(KindInvoice, termin.CategoryDesign)
	var ve termin.ValidationError

	_, err := editor.SetPricing(d, dec("120.555"), dec("250000"), decimal.Zero)
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "PRICING_INVALID", ve.Code)

	_, err = editor.SetPricing(d, dec("120"), dec("250000.5"), decimal.Zero)
	assert.ErrorAs(t, err, &ve)

	d, err = editor.SetPricing(d, dec("120.50"), dec("250000.00"), decimal.Zero)
	require.NoError(t, err)
	assert.Equal(t, "30125000", d.TotalValue.String())
	assert.True(t, d.Area.Mul(d.UnitPrice).Equal(d.TotalValue))
}

func TestSetMilestoneSpecRecalculatesEverything(t *testing.T) {
	d := editor.New(KindInvoice, termin.CategoryCivil)
	d, _ = editor.SetPricing(d, decimal.Zero, decimal.Zero, dec("10000000"))

	d, err := editor.SetMilestoneSpec(d, 4, "Pelunasan")
	require.NoError(t, err)
	assert.Equal(t, "1000000", d.Milestones[4].Amount.String())

	d, err = editor.SetMilestoneSpec(d, 0, "10%")
	require.NoError(t, err)
	assert.Equal(t, []string{"1000000", "2500000", "2500000", "2000000", "2000000"}, amounts(d))

	_, err = editor.SetMilestoneSpec(d, 9, "10%")
	assert.ErrorIs(t, err, termin.ErrMilestoneIndex)
}

func TestSetMilestoneAmountOnlySticksForManualSpecs(t *testing.T) {
	d := editor.New(KindInvoice, termin.CategoryInterior)
	d, _ = editor.SetPricing(d, decimal.Zero, decimal.Zero, dec("9000000"))

	d, err := editor.SetMilestoneAmount(d, 0, dec("1"))
	require.NoError(t, err)
	assert.Equal(t, "3600000", d.Milestones[0].Amount.String(), "percentage wins over a typed amount")

	d, _ = editor.SetMilestoneSpec(d, 0, "as agreed")
	d, err = editor.SetMilestoneAmount(d, 0, dec("1234567.6"))
	require.NoError(t, err)
	assert.Equal(t, "1234568", d.Milestones[0].Amount.String())
	assert.Len(t, d.Warnings(), 1)
}

func TestSetMilestoneLabel(t *testing.T) {
	d := editor.New(KindQuotation, termin.CategoryInterior)
	d, err := editor.SetMilestoneLabel(d, 1, "Fabrikasi")
	require.NoError(t, err)
	assert.Equal(t, "Fabrikasi", d.Milestones[1].Label)
}

func TestAddAndRemoveMilestone(t *testing.T) {
	d := editor.New(KindInvoice, termin.CategoryInterior)
	d, _ = editor.SetPricing(d, decimal.Zero, decimal.Zero, dec("9000000"))

	d = editor.AddMilestone(d)
	require.Len(t, d.Milestones, 4)
	assert.Equal(t, "Termin 4", d.Milestones[3].Label)
	assert.Equal(t, "", d.Milestones[3].Spec)

	d, _ = editor.SetActiveMilestone(d, 3)
	d, err := editor.RemoveMilestone(d, 1)
	require.NoError(t, err)
	assert.Len(t, d.Milestones, 3)
	assert.Equal(t, 2, d.ActiveMilestoneIndex, "active index follows its milestone")

	d, err = editor.RemoveMilestone(d, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, d.ActiveMilestoneIndex, "active index clamps to the new last milestone")

	_, err = editor.RemoveMilestone(d, 5)
	assert.ErrorIs(t, err, termin.ErrMilestoneIndex)
}

func TestRemoveMilestoneDoesNotTouchInput(t *testing.T) {
	d := editor.New(KindInvoice, termin.CategoryCivil)
	before := amounts(d)
	labels := d.Milestones[0].Label

	_, err := editor.RemoveMilestone(d, 0)
	require.NoError(t, err)
	assert.Len(t, d.Milestones, 5)
	assert.Equal(t, before, amounts(d))
	assert.Equal(t, labels, d.Milestones[0].Label)
}

func TestChangeCategoryResetsTemplate(t *testing.T) {
	d := editor.New(KindInvoice, termin.CategoryCivil)
	d, _ = editor.SetPricing(d, dec("100"), dec("150000"), dec("10000000"))
	d.Milestones, _ = termin.MarkPaid(d.Milestones, 0, mustDate("2026-01-10"))

	d = editor.ChangeCategory(d, termin.CategoryDesign)
	assert.Equal(t, termin.CategoryDesign, d.Category)
	assert.Equal(t, "15000000", d.TotalValue.String())
	require.Len(t, d.Milestones, 4)
	assert.Equal(t, "DP", d.Milestones[0].Spec)
	assert.False(t, d.Milestones[0].Status.Paid())

	d = editor.ChangeCategory(d, termin.CategoryInterior)
	assert.Equal(t, "15000000", d.TotalValue.String(), "previous total carries over as the manual value")
	assert.Equal(t, []string{"6000000", "4500000", "4500000"}, amounts(d))
}

func TestResetTemplate(t *testing.T) {
	d := editor.New(KindQuotation, termin.CategoryInterior)
	d = editor.AddMilestone(d)
	d, _ = editor.SetActiveMilestone(d, 3)

	d = editor.ResetTemplate(d)
	assert.Len(t, d.Milestones, 3)
	assert.Equal(t, 0, d.ActiveMilestoneIndex)
}

func TestSetActiveMilestoneRangeChecked(t *testing.T) {
	d := editor.New(KindQuotation, termin.CategoryInterior)
	_, err := editor.SetActiveMilestone(d, 3)
	assert.ErrorIs(t, err, termin.ErrMilestoneIndex)
	_, err = editor.SetActiveMilestone(d, -1)
	assert.ErrorIs(t, err, termin.ErrMilestoneIndex)
}

func TestCustomDownPayment(t *testing.T) {
	e := NewEditor(termin.NewCalculator(dec("5000000")))
	d := e.New(KindInvoice, termin.CategoryDesign)
	d, _ = e.SetPricing(d, dec("200"), dec("100000"), decimal.Zero)
	assert.Equal(t, []string{"5000000", "10000000", "6000000", "0"}, amounts(d))
}

func TestParseKindAndNumber(t *testing.T) {
	k, err := ParseKind(" Invoice ")
	require.NoError(t, err)
	assert.Equal(t, KindInvoice, k)
	assert.Equal(t, "invoices", k.Collection())
	assert.Equal(t, "quotations", KindQuotation.Collection())

	_, err = ParseKind("receipt")
	assert.Error(t, err)

	assert.Equal(t, "INV/2026/0007", FormatNumber(KindInvoice, 2026, 7))
	assert.Equal(t, "QUO/2026/0012", FormatNumber(KindQuotation, 2026, 12))
}
