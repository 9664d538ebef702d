package termin

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func amounts(ms []Milestone) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.Amount.String()
	}
	return out
}

func specs(ss ...string) []Milestone {
	out := make([]Milestone, len(ss))
	for i, s := range ss {
		out[i] = Milestone{Label: DefaultLabel(i), Spec: s}
	}
	return out
}

func TestRecalculate_CivilTemplate(t *testing.T) {
	got := Recalculate(Template(CategoryCivil), decimal.NewFromInt(100_000_000), CategoryCivil)

	assert.Equal(t, []string{"20000000", "25000000", "25000000", "20000000", "10000000"}, amounts(got))
	assert.True(t, Sum(got).Equal(decimal.NewFromInt(100_000_000)))
}

func TestRecalculate_DesignTemplate(t *testing.T) {
	got := Recalculate(Template(CategoryDesign), decimal.NewFromInt(50_000_000), CategoryDesign)

	assert.Equal(t, []string{"2500000", "25000000", "15000000", "7500000"}, amounts(got))
	assert.True(t, Sum(got).Equal(decimal.NewFromInt(50_000_000)))
}

func TestRecalculate_DesignDownPaymentIsFixed(t *testing.T) {
	for _, total := range []int64{0, 1, 10_000_000} {
		got := Recalculate(specs("DP"), decimal.NewFromInt(total), CategoryDesign)
		assert.True(t, got[0].Amount.Equal(DesignDownPayment), "total=%d amount=%s", total, got[0].Amount)
	}
}

func TestRecalculate_DownPaymentOutsideDesignPassesThrough(t *testing.T) {
	in := specs("DP", "Pelunasan")
	in[0].Amount = decimal.NewFromInt(700)

	got := Recalculate(in, decimal.NewFromInt(1_000), CategoryCivil)

	assert.Equal(t, []string{"700", "300"}, amounts(got))
}

func TestRecalculate_RemainderFloorsAtZero(t *testing.T) {
	in := specs("x", "y", "Pelunasan")
	in[0].Amount = decimal.NewFromInt(1_000_000)
	in[1].Amount = decimal.NewFromInt(500_000)

	got := Recalculate(in, decimal.NewFromInt(1_000_000), CategoryInterior)

	assert.True(t, got[2].Amount.IsZero(), "remainder = %s", got[2].Amount)
}

func TestRecalculate_MalformedSpecKeepsAmount(t *testing.T) {
	for _, total := range []int64{-5, 0, 1_000_000} {
		in := specs("abc")
		in[0].Amount = decimal.NewFromInt(500)

		got := Recalculate(in, decimal.NewFromInt(total), CategoryCivil)

		assert.Equal(t, "500", got[0].Amount.String())
	}
}

func TestRecalculate_NonPositiveTotalLeavesPercentagesUnresolved(t *testing.T) {
	in := specs("40%", "60%")
	in[0].Amount = decimal.NewFromInt(11)

	got := Recalculate(in, decimal.Zero, CategoryInterior)

	assert.Equal(t, []string{"11", "0"}, amounts(got))
}

func TestRecalculate_OrderSensitivity(t *testing.T) {
	total := decimal.NewFromInt(1_000)
	before := Recalculate(specs("10%", "20%", "Pelunasan"), total, CategoryCivil)
	after := Recalculate(specs("10%", "Pelunasan", "20%"), total, CategoryCivil)

	assert.Equal(t, []string{"100", "200", "700"}, amounts(before))
	assert.Equal(t, []string{"100", "900", "200"}, amounts(after))
}

func TestRecalculate_DownPaymentPositionMatters(t *testing.T) {
	total := decimal.NewFromInt(1_000_000)

	g1 := Recalculate(specs("DP", "70%", "Pelunasan"), total, CategoryDesign)
	g2 := Recalculate(specs("70%", "DP", "Pelunasan"), total, CategoryDesign)

	assert.Equal(t, []string{"2500000", "700000", "0"}, amounts(g1))
	assert.Equal(t, []string{"700000", "2500000", "0"}, amounts(g2))
}

func TestRecalculate_Idempotent(t *testing.T) {
	total := decimal.NewFromInt(87_654_321)
	once := Recalculate(Template(CategoryDesign), total, CategoryDesign)
	twice := Recalculate(once, total, CategoryDesign)

	assert.Equal(t, amounts(once), amounts(twice))
}

func TestRecalculate_DoesNotMutateInput(t *testing.T) {
	in := Template(CategoryInterior)
	_ = Recalculate(in, decimal.NewFromInt(1_000), CategoryInterior)

	for _, m := range in {
		assert.True(t, m.Amount.IsZero())
	}
}

func TestRecalculate_PassesThroughOtherFields(t *testing.T) {
	in := Template(CategoryCivil)
	in[1].Status = StatusSuccess
	in[1].PaymentDate = "2026-02-03"
	in[1].Label = "Struktur"

	got := Recalculate(in, decimal.NewFromInt(100), CategoryCivil)

	assert.Equal(t, StatusSuccess, got[1].Status)
	assert.Equal(t, "2026-02-03", got[1].PaymentDate)
	assert.Equal(t, "Struktur", got[1].Label)
}

func TestRecalculate_SumInvariantWithRemainder(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for n := 0; n < 200; n++ {
		count := 1 + r.Intn(3)
		ss := make([]string, 0, count+1)
		for i := 0; i < count; i++ {
			ss = append(ss, decimal.NewFromInt(int64(r.Intn(30))).String()+"%")
		}
		ss = append(ss, "Pelunasan")
		total := decimal.NewFromInt(1 + r.Int63n(5_000_000_000))

		got := Recalculate(specs(ss...), total, CategoryCivil)

		require.True(t, Sum(got).Equal(total), "specs=%v total=%s sum=%s", ss, total, Sum(got))
	}
}

func TestRecalculate_SumInvariantPercentOnlyWithinTolerance(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for n := 0; n < 200; n++ {
		total := decimal.NewFromInt(1 + r.Int63n(1_000_000_000))
		got := Recalculate(Template(CategoryCivil), total, CategoryCivil)

		diff := Sum(got).Sub(total).Abs()
		require.True(t, diff.LessThanOrEqual(decimal.NewFromInt(1)), "total=%s sum=%s", total, Sum(got))
	}
}

func TestRecalculate_PercentRoundingDoesNotDrift(t *testing.T) {
	got := Recalculate(Template(CategoryCivil), decimal.NewFromInt(18), CategoryCivil)
	assert.Equal(t, []string{"4", "4", "5", "3", "2"}, amounts(got))
	assert.Equal(t, "18", Sum(got).String())

	total := decimal.NewFromInt(100_000_018)
	got = Recalculate(Template(CategoryCivil), total, CategoryCivil)
	assert.Equal(t, []string{"20000004", "25000004", "25000005", "20000003", "10000002"}, amounts(got))
	assert.True(t, Sum(got).Equal(total))
}

func TestRecalculate_PercentOnlySumsExactlyToFullShare(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	for n := 0; n < 200; n++ {
		ss := []string{"12.5%", "33.3%", "20.2%", "34%"}
		total := decimal.NewFromInt(1 + r.Int63n(1_000_000_000))
		got := Recalculate(specs(ss...), total, CategoryInterior)

		require.True(t, Sum(got).Equal(total), "total=%s sum=%s", total, Sum(got))
	}
}

func TestNewCalculator_CustomDownPayment(t *testing.T) {
	calc := NewCalculator(decimal.NewFromInt(3_000_000))
	got := calc.Recalculate(Template(CategoryDesign), decimal.NewFromInt(10_000_000), CategoryDesign)

	assert.Equal(t, []string{"3000000", "5000000", "3000000", "0"}, amounts(got))
}

func TestNewCalculator_DefaultsNonPositive(t *testing.T) {
	assert.True(t, NewCalculator(decimal.Zero).DownPayment.Equal(DesignDownPayment))
}

func TestDeriveTotal(t *testing.T) {
	area := decimal.RequireFromString("120.5")
	price := decimal.NewFromInt(350_000)
	manual := decimal.NewFromInt(99)

	assert.Equal(t, "42175000", DeriveTotal(CategoryDesign, area, price, manual).String())
	assert.Equal(t, "99", DeriveTotal(CategoryCivil, area, price, manual).String())
	assert.Equal(t, "99", DeriveTotal(CategoryInterior, area, price, manual).String())

	assert.Equal(t, "1000001", DeriveTotal(CategoryInterior, area, price, decimal.RequireFromString("1000000.7")).String())
	assert.Equal(t, "1000000", DeriveTotal(CategoryCivil, area, price, decimal.RequireFromString("1000000.4")).String())
}
