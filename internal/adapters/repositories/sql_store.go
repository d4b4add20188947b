package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"food-rescue-service/internal/domain"
)

// Dialect names the database/sql driver the store talks to.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "pgx"
)

// timeLayout is fixed-width so that text timestamps sort chronologically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLStore implements every repository port over database/sql.
// Queries are written with "?" placeholders and rebound for Postgres.
type SQLStore struct {
	DB      *sql.DB
	Dialect Dialect
}

func NewSQLStore(db *sql.DB, dialect Dialect) *SQLStore {
	return &SQLStore{DB: db, Dialect: dialect}
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

func (s *SQLStore) rebind(query string) string {
	if s.Dialect != DialectPostgres {
		return query
	}

	var sb strings.Builder
	sb.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func (s *SQLStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	if s.DB == nil {
		return errors.New("sql store: DB is nil")
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}

func parseTimePtr(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := parseTime(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func rowsAffected(res sql.Result) (int, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(n), nil
}

const offerColumns = `id, donor_id, title, category, quantity, unit, storage, expires_at,
	pickup_start, pickup_end, lat, lng, address, photo_url, status, created_at`

func (s *SQLStore) insertOffer(ctx context.Context, ex execer, o *domain.Offer, ignoreExisting bool) (int, error) {
	query := `INSERT INTO offers (` + offerColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if ignoreExisting {
		query += ` ON CONFLICT (id) DO NOTHING`
	}

	res, err := ex.ExecContext(ctx, s.rebind(query),
		o.ID, o.DonorID, o.Title, string(o.Category), o.Quantity, string(o.Unit), string(o.Storage),
		formatTime(o.ExpiresAt), formatTime(o.PickupWindow.Start), formatTime(o.PickupWindow.End),
		o.Location.Lat, o.Location.Lng, o.Address, o.PhotoURL, string(o.Status), formatTime(o.CreatedAt),
	)
	if err != nil {
		return 0, err
	}
	return rowsAffected(res)
}

func scanOffer(row scanner) (*domain.Offer, error) {
	var (
		o                                            domain.Offer
		category, unit, storage, status              string
		expiresAt, pickupStart, pickupEnd, createdAt string
	)
	err := row.Scan(
		&o.ID, &o.DonorID, &o.Title, &category, &o.Quantity, &unit, &storage, &expiresAt,
		&pickupStart, &pickupEnd, &o.Location.Lat, &o.Location.Lng, &o.Address, &o.PhotoURL, &status, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	o.Category = domain.Category(category)
	o.Unit = domain.Unit(unit)
	o.Storage = domain.Storage(storage)
	o.Status = domain.OfferStatus(status)

	if o.ExpiresAt, err = parseTime(expiresAt); err != nil {
		return nil, fmt.Errorf("offer %s expires_at: %w", o.ID, err)
	}
	if o.PickupWindow.Start, err = parseTime(pickupStart); err != nil {
		return nil, fmt.Errorf("offer %s pickup_start: %w", o.ID, err)
	}
	if o.PickupWindow.End, err = parseTime(pickupEnd); err != nil {
		return nil, fmt.Errorf("offer %s pickup_end: %w", o.ID, err)
	}
	if o.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("offer %s created_at: %w", o.ID, err)
	}
	return &o, nil
}

func (s *SQLStore) CreateOffer(ctx context.Context, offer *domain.Offer) error {
	if s.DB == nil {
		return errors.New("create offer: DB is nil")
	}
	if _, err := s.insertOffer(ctx, s.DB, offer, false); err != nil {
		return fmt.Errorf("create offer %s: %w", offer.ID, err)
	}
	return nil
}

func (s *SQLStore) getOffer(ctx context.Context, ex execer, id string) (*domain.Offer, error) {
	query := `SELECT ` + offerColumns + ` FROM offers WHERE id = ?`
	o, err := scanOffer(ex.QueryRowContext(ctx, s.rebind(query), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get offer %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get offer %s: %w", id, err)
	}
	return o, nil
}

func (s *SQLStore) GetOffer(ctx context.Context, id string) (*domain.Offer, error) {
	if s.DB == nil {
		return nil, errors.New("get offer: DB is nil")
	}
	return s.getOffer(ctx, s.DB, id)
}

func (s *SQLStore) ListOffers(ctx context.Context) ([]*domain.Offer, error) {
	if s.DB == nil {
		return nil, errors.New("list offers: DB is nil")
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT `+offerColumns+` FROM offers ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list offers: query offers table: %w", err)
	}
	defer rows.Close()

	offers := make([]*domain.Offer, 0, 64)
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, fmt.Errorf("list offers: scan row: %w", err)
		}
		offers = append(offers, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list offers: row iteration: %w", err)
	}
	return offers, nil
}

func (s *SQLStore) ExpireOffer(ctx context.Context, id string, asOf time.Time) (bool, error) {
	if s.DB == nil {
		return false, errors.New("expire offer: DB is nil")
	}

	query := `UPDATE offers SET status = ? WHERE id = ? AND status <> ? AND expires_at <= ?`
	res, err := s.DB.ExecContext(ctx, s.rebind(query),
		string(domain.OfferExpired), id, string(domain.OfferExpired), formatTime(asOf))
	if err != nil {
		return false, fmt.Errorf("expire offer %s: %w", id, err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return false, fmt.Errorf("expire offer %s: %w", id, err)
	}
	return n == 1, nil
}

const needColumns = `id, beneficiary_id, category, min_quantity, urgency, accepted_storage,
	delivery_preferred, lat, lng, address, created_at`

func (s *SQLStore) insertNeed(ctx context.Context, ex execer, n *domain.Need, ignoreExisting bool) (int, error) {
	storage := make([]string, 0, len(n.AcceptedStorage))
	for _, st := range n.AcceptedStorage {
		storage = append(storage, string(st))
	}

	query := `INSERT INTO needs (` + needColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if ignoreExisting {
		query += ` ON CONFLICT (id) DO NOTHING`
	}

	res, err := ex.ExecContext(ctx, s.rebind(query),
		n.ID, n.BeneficiaryID, string(n.Category), n.MinQuantity, string(n.Urgency), strings.Join(storage, ","),
		n.DeliveryPreferred, n.Location.Lat, n.Location.Lng, n.Address, formatTime(n.CreatedAt),
	)
	if err != nil {
		return 0, err
	}
	return rowsAffected(res)
}

func scanNeed(row scanner) (*domain.Need, error) {
	var (
		n                                   domain.Need
		category, urgency, storage, created string
	)
	err := row.Scan(
		&n.ID, &n.BeneficiaryID, &category, &n.MinQuantity, &urgency, &storage,
		&n.DeliveryPreferred, &n.Location.Lat, &n.Location.Lng, &n.Address, &created,
	)
	if err != nil {
		return nil, err
	}

	n.Category = domain.Category(category)
	n.Urgency = domain.Urgency(urgency)
	for _, st := range strings.Split(storage, ",") {
		if st = strings.TrimSpace(st); st != "" {
			n.AcceptedStorage = append(n.AcceptedStorage, domain.Storage(st))
		}
	}
	if n.CreatedAt, err = parseTime(created); err != nil {
		return nil, fmt.Errorf("need %s created_at: %w", n.ID, err)
	}
	return &n, nil
}

func (s *SQLStore) CreateNeed(ctx context.Context, need *domain.Need) error {
	if s.DB == nil {
		return errors.New("create need: DB is nil")
	}
	if _, err := s.insertNeed(ctx, s.DB, need, false); err != nil {
		return fmt.Errorf("create need %s: %w", need.ID, err)
	}
	return nil
}

func (s *SQLStore) GetNeed(ctx context.Context, id string) (*domain.Need, error) {
	if s.DB == nil {
		return nil, errors.New("get need: DB is nil")
	}

	query := `SELECT ` + needColumns + ` FROM needs WHERE id = ?`
	n, err := scanNeed(s.DB.QueryRowContext(ctx, s.rebind(query), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get need %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get need %s: %w", id, err)
	}
	return n, nil
}

func (s *SQLStore) ListNeeds(ctx context.Context) ([]*domain.Need, error) {
	if s.DB == nil {
		return nil, errors.New("list needs: DB is nil")
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT `+needColumns+` FROM needs ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list needs: query needs table: %w", err)
	}
	defer rows.Close()

	needs := make([]*domain.Need, 0, 64)
	for rows.Next() {
		n, err := scanNeed(rows)
		if err != nil {
			return nil, fmt.Errorf("list needs: scan row: %w", err)
		}
		needs = append(needs, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list needs: row iteration: %w", err)
	}
	return needs, nil
}
