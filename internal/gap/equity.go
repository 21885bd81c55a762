package gap

import (
	"fmt"
	"strings"

	"proptrack/server/config"
)

// EquityScenario is one affordability calculation under a single
// valuation haircut.
type EquityScenario struct {
	Scenario string `json:"scenario"`

	// Investment property
	IPProxyValue   int `json:"ip_proxy_value"`
	IPValuation    int `json:"ip_valuation"`
	IPDebt         int `json:"ip_debt"`
	IPGrossEquity  int `json:"ip_gross_equity"`
	IPUsableEquity int `json:"ip_usable_equity"`

	// Owner-occupied home being sold
	PPORProxyValue  int `json:"ppor_proxy_value"`
	PPORSellingCost int `json:"ppor_selling_cost"`
	PPORDebt        int `json:"ppor_debt"`
	PPORNetProceeds int `json:"ppor_net_proceeds"`

	SavingsBalance int `json:"savings_balance"`
	MonthlySavings int `json:"monthly_savings"`

	TotalCash int `json:"total_cash"`

	TargetPrice       int `json:"target_price"`
	StampDuty         int `json:"stamp_duty"`
	PurchaseCosts     int `json:"purchase_costs"`
	TotalPurchaseCost int `json:"total_purchase_cost"`

	// Positive gap means the purchase is out of reach by that amount
	AffordabilityGap int `json:"affordability_gap"`
}

// AffordabilityResult holds the bear, base, and bull scenarios plus a
// summary over them.
type AffordabilityResult struct {
	Bear EquityScenario `json:"bear"`
	Base EquityScenario `json:"base"`
	Bull EquityScenario `json:"bull"`

	WorstGap         int  `json:"worst_gap"`
	BestGap          int  `json:"best_gap"`
	IsAffordable     bool `json:"is_affordable"`
	MonthsToCloseGap *int `json:"months_to_close_gap"`
}

// StampDutyNSW computes standard NSW transfer duty for a purchase,
// without first home buyer concessions. Brackets are the 2024 rates.
func StampDutyNSW(price int) int {
	p := float64(price)
	switch {
	case price <= 16_000:
		return int(p * 0.0125)
	case price <= 35_000:
		return int(200 + (p-16_000)*0.015)
	case price <= 93_000:
		return int(485 + (p-35_000)*0.0175)
	case price <= 351_000:
		return int(1_500 + (p-93_000)*0.035)
	case price <= 1_168_000:
		return int(10_530 + (p-351_000)*0.045)
	default:
		return int(47_295 + (p-1_168_000)*0.055)
	}
}

// UsableEquity computes how much equity a lender would release from a
// property: the valuation after the haircut, capped at the refinance
// LVR, minus the debt already secured against it.
func UsableEquity(marketValue int, haircut float64, currentDebt int, lvrCap float64) (valuation, grossEquity, usableEquity int) {
	valuation = int(float64(marketValue) * haircut)

	grossEquity = valuation - currentDebt
	if grossEquity < 0 {
		grossEquity = 0
	}

	maxBorrowing := int(float64(valuation) * lvrCap)
	usableEquity = maxBorrowing - currentDebt
	if usableEquity < 0 {
		usableEquity = 0
	}

	return valuation, grossEquity, usableEquity
}

// PPORProceeds computes the cash left after selling the home: sale
// price minus agent and transaction costs minus the mortgage cleared.
func PPORProceeds(salePrice int, sellingCostRate float64, debtToClear int) (sellingCosts, netProceeds int) {
	sellingCosts = int(float64(salePrice) * sellingCostRate)

	netProceeds = salePrice - sellingCosts - debtToClear
	if netProceeds < 0 {
		netProceeds = 0
	}

	return sellingCosts, netProceeds
}

// ComputeAffordability runs the full affordability analysis across the
// bear, base, and bull haircut scenarios.
func ComputeAffordability(cfg *config.Config, ipProxyValue, pporProxyValue, targetPrice int) AffordabilityResult {
	fin := cfg.Finance

	compute := func(name string, haircut float64) EquityScenario {
		ipValuation, ipGross, ipUsable := UsableEquity(ipProxyValue, haircut, fin.IPDebt, fin.RefinanceLVRCap)

		// Same haircut applies to the sale price assumption
		pporAdjusted := int(float64(pporProxyValue) * haircut)
		pporCosts, pporNet := PPORProceeds(pporAdjusted, fin.PPORSellingCostRate, fin.PPORDebt)

		totalCash := fin.SavingsBalance + pporNet + ipUsable

		stampDuty := StampDutyNSW(targetPrice)
		purchaseCosts := int(float64(targetPrice) * fin.PurchaseCostRate)
		totalPurchase := targetPrice + stampDuty + purchaseCosts

		return EquityScenario{
			Scenario:          name,
			IPProxyValue:      ipProxyValue,
			IPValuation:       ipValuation,
			IPDebt:            fin.IPDebt,
			IPGrossEquity:     ipGross,
			IPUsableEquity:    ipUsable,
			PPORProxyValue:    pporProxyValue,
			PPORSellingCost:   pporCosts,
			PPORDebt:          fin.PPORDebt,
			PPORNetProceeds:   pporNet,
			SavingsBalance:    fin.SavingsBalance,
			MonthlySavings:    fin.MonthlySavings,
			TotalCash:         totalCash,
			TargetPrice:       targetPrice,
			StampDuty:         stampDuty,
			PurchaseCosts:     purchaseCosts,
			TotalPurchaseCost: totalPurchase,
			AffordabilityGap:  totalPurchase - totalCash,
		}
	}

	result := AffordabilityResult{
		Bear: compute("bear", fin.HaircutBear),
		Base: compute("base", fin.HaircutBase),
		Bull: compute("bull", fin.HaircutBull),
	}

	result.WorstGap = result.Bear.AffordabilityGap
	result.BestGap = result.Bear.AffordabilityGap
	for _, s := range []EquityScenario{result.Base, result.Bull} {
		if s.AffordabilityGap > result.WorstGap {
			result.WorstGap = s.AffordabilityGap
		}
		if s.AffordabilityGap < result.BestGap {
			result.BestGap = s.AffordabilityGap
		}
	}

	result.IsAffordable = result.Base.AffordabilityGap <= 0

	if baseGap := result.Base.AffordabilityGap; baseGap > 0 && fin.MonthlySavings > 0 {
		months := baseGap/fin.MonthlySavings + 1
		result.MonthsToCloseGap = &months
	}

	return result
}

// Summary formats the affordability result for display.
func (r AffordabilityResult) Summary() string {
	lines := []string{
		"Affordability Gap Analysis:",
		fmt.Sprintf("  Bear: %s", FormatCurrency(r.Bear.AffordabilityGap)),
		fmt.Sprintf("  Base: %s", FormatCurrency(r.Base.AffordabilityGap)),
		fmt.Sprintf("  Bull: %s", FormatCurrency(r.Bull.AffordabilityGap)),
	}

	if r.IsAffordable {
		lines = append(lines, "  Status: AFFORDABLE (base case)")
	} else {
		lines = append(lines, fmt.Sprintf("  Status: Gap of %s", FormatCurrency(r.Base.AffordabilityGap)))
		if r.MonthsToCloseGap != nil {
			lines = append(lines, fmt.Sprintf("  Time to close: ~%d months", *r.MonthsToCloseGap))
		}
	}

	return strings.Join(lines, "\n")
}

// FormatCurrency formats a dollar amount with thousands separators.
func FormatCurrency(amount int) string {
	if amount < 0 {
		return "-$" + groupThousands(-amount)
	}
	return "$" + groupThousands(amount)
}

// FormatSignedCurrency always carries an explicit sign.
func FormatSignedCurrency(amount int) string {
	if amount < 0 {
		return "-$" + groupThousands(-amount)
	}
	return "+$" + groupThousands(amount)
}

func groupThousands(amount int) string {
	digits := fmt.Sprintf("%d", amount)

	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	return b.String()
}
