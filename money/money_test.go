package money_test

import (
	"testing"

	. "github.com/onsi/gomega"

	"github.com/cryptotax/engine/money"
)

func TestRoundBankersRounding(t *testing.T) {
	g := NewGomegaWithT(t)

	d, err := money.NewFromString("2.345")
	g.Expect(err).NotTo(HaveOccurred())

	g.Expect(money.Round(d, 2).String()).To(Equal("2.34"))
	g.Expect(money.Round(money.NewFromFloat(2.355), 2).String()).To(Equal("2.36"))
}

func TestPercentZeroWhole(t *testing.T) {
	g := NewGomegaWithT(t)

	g.Expect(money.Percent(money.New(5), money.Zero)).To(Equal(money.Zero))
}

func TestPercentHalf(t *testing.T) {
	g := NewGomegaWithT(t)

	half := money.Percent(money.New(1), money.New(2))
	g.Expect(half.Equal(money.New(50))).To(BeTrue())
}

func TestMinMax(t *testing.T) {
	g := NewGomegaWithT(t)

	a, b := money.New(3), money.New(7)
	g.Expect(money.Min(a, b)).To(Equal(a))
	g.Expect(money.Max(a, b)).To(Equal(b))
}

func TestInvalidString(t *testing.T) {
	g := NewGomegaWithT(t)

	_, err := money.NewFromString("not-a-number")
	g.Expect(err).To(HaveOccurred())
}
