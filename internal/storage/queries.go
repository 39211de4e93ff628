package storage

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Veraticus/fund-compliance/internal/model"
	"github.com/Veraticus/fund-compliance/internal/service"
)

// ErrInvalidDimension is returned for a grouping column outside the whitelist.
var ErrInvalidDimension = errors.New("invalid grouping dimension")

// placeholder renders the n-th (1-based) bind parameter for a driver.
type placeholder func(n int) string

func questionMark(int) string { return "?" }

func dollarN(n int) string { return "$" + strconv.Itoa(n) }

var dimensionColumns = map[service.Dimension]string{
	service.DimensionCountry: "country",
	service.DimensionSector:  "sector",
}

const positionColumns = `isin, COALESCE(security_name, ''), fund_id, COALESCE(asset_class, ''),
	COALESCE(country, ''), COALESCE(sector, ''), COALESCE(weight_pct, 0), COALESCE(compliance_status, '')`

// positionQueries builds the SQL for one driver's bind syntax.
type positionQueries struct {
	ph placeholder
}

// where renders the fund scope plus filter predicates.
func (q positionQueries) where(fundID int64, filter service.Filter) (string, []any) {
	args := []any{fundID}
	var b strings.Builder
	b.WriteString("fund_id = ")
	b.WriteString(q.ph(1))

	if len(filter.AssetClasses) > 0 {
		b.WriteString(" AND asset_class IN (")
		for i, class := range filter.AssetClasses {
			if i > 0 {
				b.WriteString(", ")
			}
			args = append(args, string(class))
			b.WriteString(q.ph(len(args)))
		}
		b.WriteString(")")
	}

	if len(filter.Statuses) > 0 {
		b.WriteString(" AND compliance_status IN (")
		for i, status := range filter.Statuses {
			if i > 0 {
				b.WriteString(", ")
			}
			args = append(args, string(status))
			b.WriteString(q.ph(len(args)))
		}
		b.WriteString(")")
	}

	return b.String(), args
}

func (q positionQueries) sumWeight(fundID int64, filter service.Filter) (string, []any) {
	where, args := q.where(fundID, filter)
	return "SELECT COALESCE(SUM(weight_pct), 0) FROM positions WHERE " + where, args
}

func (q positionQueries) countPositions(fundID int64, filter service.Filter) (string, []any) {
	where, args := q.where(fundID, filter)
	return "SELECT COUNT(*) FROM positions WHERE " + where, args
}

func (q positionQueries) groupWeights(fundID int64, dim service.Dimension) (string, []any, error) {
	column, ok := dimensionColumns[dim]
	if !ok {
		return "", nil, fmt.Errorf("%w: %q", ErrInvalidDimension, dim)
	}
	query := fmt.Sprintf(`SELECT COALESCE(%s, '') AS grp, SUM(weight_pct) AS total
		FROM positions
		WHERE fund_id = %s
		GROUP BY grp
		ORDER BY total DESC, grp`, column, q.ph(1))
	return query, []any{fundID}, nil
}

func (q positionQueries) listPositions(fundID int64, filter service.Filter, limit int) (string, []any) {
	where, args := q.where(fundID, filter)
	query := "SELECT " + positionColumns + " FROM positions WHERE " + where + " ORDER BY weight_pct DESC, isin"
	if limit > 0 {
		query += " LIMIT " + strconv.Itoa(limit)
	}
	return query, args
}

func (q positionQueries) getFund() string {
	return "SELECT id, COALESCE(name, ''), COALESCE(aum_usd, 0) FROM funds WHERE id = " + q.ph(1)
}

// rowScanner is satisfied by *sql.Rows, *sql.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanPosition(row rowScanner) (model.Position, error) {
	var (
		p          model.Position
		assetClass string
		status     string
	)
	if err := row.Scan(&p.ISIN, &p.SecurityName, &p.FundID, &assetClass,
		&p.Country, &p.Sector, &p.WeightPct, &status); err != nil {
		return model.Position{}, fmt.Errorf("failed to scan position: %w", err)
	}
	p.AssetClass = model.AssetClass(assetClass)
	p.ComplianceStatus = model.ComplianceStatus(status)
	return p, nil
}
