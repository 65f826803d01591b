package mysql

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"trip_planner/internal/domain"
)

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
func valInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}
func valF64(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}
func valJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

const defaultMaxAge = 7 * 24 * time.Hour

// Repo is the hotel rate catalog: the ingestor writes it and the planner
// reads it through domain.HotelProvider.
type Repo struct {
	db     *sql.DB
	maxAge time.Duration
	now    func() time.Time
}

func New(db *sql.DB) *Repo { return &Repo{db: db, maxAge: defaultMaxAge, now: time.Now} }

// WithMaxAge sets how old a listing may be before Search ignores it.
func (r *Repo) WithMaxAge(d time.Duration) *Repo {
	r.maxAge = d
	return r
}

func (r *Repo) UpsertRates(ctx context.Context, rs []domain.RateListing) error {
	if len(rs) == 0 {
		return nil
	}
	values := make([]string, 0, len(rs))
	args := make([]any, 0, len(rs)*11)
	for _, l := range rs {
		values = append(values, "(?,?,?,?,?,?,?,?,?,?,?)")
		args = append(args,
			l.PropertyID,
			domain.NormalizeDestination(l.Destination),
			l.Name,
			l.Currency,
			l.NightlyRate.StringFixed(2),
			l.MaxOccupancy,
			valF64(l.Rating),
			valInt(l.ReviewCount),
			valStr(l.URL),
			valJSON(l.RawJSON),
			l.FetchedAt.UTC(),
		)
	}
	sqlStr := upsertRatesPrefix + strings.Join(values, ",") + upsertRatesOnDup
	_, err := r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *Repo) LogMiss(ctx context.Context, destination string, status int, reason string) error {
	_, err := r.db.ExecContext(ctx, insertMissSQL, domain.NormalizeDestination(destination), status, reason)
	return err
}

// Search implements domain.HotelProvider. Database failures surface as
// ErrDataUnavailable; an empty result is not an error here.
func (r *Repo) Search(ctx context.Context, destination string, partySize int) ([]domain.RateCandidate, error) {
	return r.SearchIn(ctx, destination, partySize, "")
}

// SearchIn returns every fresh listing quoted in currency. The result is not
// cut off by price: the planner takes a median over all of it.
func (r *Repo) SearchIn(ctx context.Context, destination string, partySize int, currency string) ([]domain.RateCandidate, error) {
	cutoff := r.now().Add(-r.maxAge).UTC()
	rows, err := r.db.QueryContext(ctx, searchRatesSQL, domain.NormalizeDestination(destination), partySize, cutoff, currency, currency)
	if err != nil {
		return nil, domain.Unavailable("hotel catalog: %v", err)
	}
	defer rows.Close()

	var out []domain.RateCandidate
	for rows.Next() {
		var (
			c        domain.RateCandidate
			currency string
			rate     decimal.Decimal
			name     sql.NullString
			rating   sql.NullFloat64
			reviews  sql.NullInt64
			url      sql.NullString
		)
		if err := rows.Scan(&c.PropertyID, &name, &currency, &rate, &rating, &reviews, &url); err != nil {
			return nil, domain.Unavailable("hotel catalog scan: %v", err)
		}
		c.Name = name.String
		c.NightlyRate = domain.NewMoney(rate, currency)
		if rating.Valid {
			f := rating.Float64
			c.Rating = &f
		}
		if reviews.Valid {
			n := int(reviews.Int64)
			c.ReviewCount = &n
		}
		c.URL = url.String
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Unavailable("hotel catalog rows: %v", err)
	}
	return out, nil
}
