// internal/fees/fees.go
package fees

const (
	DevPercent      = 4
	DividendPercent = 6
	ReferralPercent = 4
	CashbackPercent = 1
)

// Breakdown is how one inbound amount is split across the pools.
// Net is whatever is left after the fee buckets and absorbs rounding slack.
type Breakdown struct {
	Gross    uint64
	Dev      uint64
	Referral uint64
	Cashback uint64
	Dividend uint64
	Net      uint64
}

// Total equals Gross for every breakdown produced by this package.
func (b Breakdown) Total() uint64 {
	return b.Dev + b.Referral + b.Cashback + b.Dividend + b.Net
}

// Fees is the sum of every bucket except Net.
func (b Breakdown) Fees() uint64 {
	return b.Dev + b.Referral + b.Cashback + b.Dividend
}

// Percent returns floor(amount*p/100) without overflowing for any uint64 amount.
func Percent(amount, p uint64) uint64 {
	return (amount/100)*p + (amount%100)*p/100
}

// SplitPremarket splits a premarket deposit. Referral and cashback are only
// charged when the buyer has an effective referrer.
func SplitPremarket(gross uint64, referred bool) Breakdown {
	return split(gross, referred, false)
}

// SplitLive splits a live-phase buy. The dividend bucket is charged only when
// there are premarket depositors to receive it.
func SplitLive(gross uint64, referred, dividend bool) Breakdown {
	return split(gross, referred, dividend)
}

// SplitSell splits sell proceeds; Net is what the seller is owed.
func SplitSell(proceeds uint64, dividend bool) Breakdown {
	return split(proceeds, false, dividend)
}

func split(gross uint64, referred, dividend bool) Breakdown {
	b := Breakdown{
		Gross: gross,
		Dev:   Percent(gross, DevPercent),
	}
	if referred {
		b.Referral = Percent(gross, ReferralPercent)
		b.Cashback = Percent(gross, CashbackPercent)
	}
	if dividend {
		b.Dividend = Percent(gross, DividendPercent)
	}
	b.Net = gross - b.Fees()
	return b
}
