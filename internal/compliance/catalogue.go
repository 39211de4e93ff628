package compliance

import (
	"github.com/Veraticus/fund-compliance/internal/model"
	"github.com/Veraticus/fund-compliance/internal/service"
)

// TopHoldingsCount is N for the top-N holdings rule.
const TopHoldingsCount = 5

// Catalogue returns the fixed set of compliance rules.
func Catalogue() []Rule {
	equity := service.Filter{AssetClasses: []model.AssetClass{model.AssetEquity}}
	bond := service.Filter{AssetClasses: []model.AssetClass{model.AssetBond}}
	cash := service.Filter{AssetClasses: []model.AssetClass{model.AssetCash}}
	commodity := service.Filter{AssetClasses: []model.AssetClass{model.AssetCommodity}}
	equityLike := service.Filter{AssetClasses: []model.AssetClass{model.AssetEquity, model.AssetETF}}
	restricted := service.Filter{Statuses: []model.ComplianceStatus{model.ComplianceRestricted}}
	review := service.Filter{Statuses: []model.ComplianceStatus{model.ComplianceReview}}

	return []Rule{
		NewRule("R001", "max 60% of portfolio in Equity",
			model.RuleTypeMaxPctNAV, model.UnitPctNAV, 60, maxPctOfNAV("Equity exposure", equity)),
		NewRule("R002", "no positions with Restricted compliance status",
			model.RuleTypeProhibited, model.UnitCount, 0, prohibitedCount("Restricted", restricted)),
		NewRule("R003", "max 30% of portfolio in any single country",
			model.RuleTypeConcentration, model.UnitPctNAV, 30, groupConcentration(service.DimensionCountry, "Country")),
		NewRule("R004", "max 30% of portfolio in any single sector",
			model.RuleTypeConcentration, model.UnitPctNAV, 30, groupConcentration(service.DimensionSector, "Sector")),
		NewRule("R005", "max 40% of portfolio in Bonds",
			model.RuleTypeMaxPctNAV, model.UnitPctNAV, 40, maxPctOfNAV("Bond exposure", bond)),
		NewRule("R006", "min 2% of portfolio in Cash",
			model.RuleTypeMinPctNAV, model.UnitPctNAV, 2, minPctOfNAV("Cash", cash)),
		NewRule("R007", "no single position to exceed 15% of NAV",
			model.RuleTypeConcentration, model.UnitPctNAV, 15, singlePosition()),
		NewRule("R008", "max 20% of portfolio in Review status positions",
			model.RuleTypeMaxPctNAV, model.UnitPctNAV, 20, maxPctOfNAV("Review-status exposure", review)),
		NewRule("R009", "max 15% of portfolio in Commodity",
			model.RuleTypeMaxPctNAV, model.UnitPctNAV, 15, maxPctOfNAV("Commodity exposure", commodity)),
		NewRule("R010", "max 50% of portfolio in Equity plus ETF combined",
			model.RuleTypeMaxPctNAV, model.UnitPctNAV, 50, maxPctOfNAV("Equity+ETF combined", equityLike)),
		NewRule("R011", "minimum 10 positions in portfolio",
			model.RuleTypeMinCount, model.UnitCount, 10, minCount()),
		NewRule("R012", "top 5 holdings max 80% of portfolio",
			model.RuleTypeConcentration, model.UnitPctNAV, 80, topN(TopHoldingsCount)),
	}
}
