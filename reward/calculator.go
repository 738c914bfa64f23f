/*
calculator.go - Reward computation

PURPOSE:
  Turns a set of matching rules plus an optional interaction amount
  into a single owed token total. Pure function of its inputs; the
  engine decides what to do with the result.

ALGORITHM:
  total = 0
  for each rule:
    per_amount: total += (amount / 10_000) * rate,
                but only when amount is present and > 0
    flat:       total += rate, unconditionally
  A total <= 0 means "no reward" and the caller skips the transfer
  entirely. That is a normal outcome, not an error.

NUMERIC SEMANTICS:
  decimal arithmetic throughout; addition is exact, so rule order
  cannot change the total. No rounding and no cap is applied here:
  the max_reward / min_amount fields that appear in demo catalogs are
  display enrichment only and are deliberately not enforced.
*/
package reward

import "github.com/shopspring/decimal"

// Compute sums the contribution of each rule for the given amount.
// amount is nil when the interaction carried no monetary value.
func Compute(rules []Rule, amount *decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, r := range rules {
		total = total.Add(contribution(r, amount))
	}
	return total
}

func contribution(r Rule, amount *decimal.Decimal) decimal.Decimal {
	switch r.Mode {
	case ModePerAmount:
		if amount == nil || !amount.IsPositive() {
			return decimal.Zero
		}
		return amount.Div(PerAmountUnit).Mul(r.Rate)
	default:
		// Anything that isn't per_amount pays flat. Unknown modes are
		// caught at the API boundary; rows predating that check still
		// resolve somewhere deterministic.
		return r.Rate
	}
}
