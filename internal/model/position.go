package model

// AssetClass is the instrument class of a holding.
type AssetClass string

// Asset classes present in the positions table.
const (
	AssetEquity    AssetClass = "Equity"
	AssetBond      AssetClass = "Bond"
	AssetCash      AssetClass = "Cash"
	AssetCommodity AssetClass = "Commodity"
	AssetETF       AssetClass = "ETF"
)

// ComplianceStatus is the compliance desk's flag on a holding.
type ComplianceStatus string

// Compliance status values.
const (
	ComplianceClear      ComplianceStatus = "Clear"
	ComplianceReview     ComplianceStatus = "Review"
	ComplianceRestricted ComplianceStatus = "Restricted"
)

// Position is a single holding of a fund in the current snapshot.
type Position struct {
	ISIN             string
	SecurityName     string
	AssetClass       AssetClass
	Country          string
	Sector           string
	ComplianceStatus ComplianceStatus
	FundID           int64
	WeightPct        float64
}

// Fund is a row of the funds table. AUMUSD is expressed in millions.
type Fund struct {
	Name   string
	ID     int64
	AUMUSD float64
}
