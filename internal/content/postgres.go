package content

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of pgxpool.Pool used by PostgresStore.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// PostgresStore persists records in content_records and content_meta.
type PostgresStore struct {
	db  DB
	now func() time.Time
}

// NewPostgresStore wraps db.
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db, now: time.Now}
}

const recordColumns = `r.id::text, r.type, r.title, r.status, r.created_at, r.updated_at`

// numericMeta mirrors NumericValue: plain integers of up to 18 digits, else 0.
const numericMeta = `(CASE WHEN m.meta_value ~ '^\s*[-+]?[0-9]{1,18}\s*$' THEN m.meta_value::bigint ELSE 0 END)`

func scanRecord(row pgx.Row) (Record, error) {
	var rec Record
	if err := row.Scan(&rec.ID, &rec.Type, &rec.Title, &rec.Status, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	return rec, nil
}

// validID reports whether id can address a row; anything else is simply not found.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func (s *PostgresStore) Create(ctx context.Context, rec Record) (Record, error) {
	if rec.Type == "" {
		return Record{}, ErrInvalidInput
	}
	now := s.now().UTC()
	created, err := scanRecord(s.db.QueryRow(ctx, `
		INSERT INTO content_records AS r (id, type, title, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		RETURNING `+recordColumns,
		uuid.NewString(), rec.Type, rec.Title, normalizeStatus(rec.Status), now))
	if err != nil {
		return Record{}, fmt.Errorf("insert content record: %w", err)
	}
	for key, value := range rec.Meta {
		if err := s.UpdateMeta(ctx, created.ID, key, value); err != nil {
			return Record{}, err
		}
	}
	created.Meta = rec.Meta
	if created.Meta == nil {
		created.Meta = map[string]string{}
	}
	return created, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (Record, error) {
	if !validID(id) {
		return Record{}, ErrNotFound
	}
	rec, err := scanRecord(s.db.QueryRow(ctx, `SELECT `+recordColumns+` FROM content_records r WHERE r.id = $1`, id))
	if err != nil {
		return Record{}, err
	}
	rec.Meta, err = s.Meta(ctx, id)
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (s *PostgresStore) List(ctx context.Context, typ, status string) ([]Record, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+recordColumns+`
		FROM content_records r
		WHERE r.type = $1 AND ($2 = '' OR r.status = $2)
		ORDER BY r.created_at DESC, r.id`, typ, status)
	if err != nil {
		return nil, fmt.Errorf("list content records: %w", err)
	}
	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Record, error) {
		return scanRecord(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan content records: %w", err)
	}
	if len(records) == 0 {
		return records, nil
	}

	ids := make([]string, len(records))
	index := make(map[string]int, len(records))
	for i := range records {
		ids[i] = records[i].ID
		index[records[i].ID] = i
		records[i].Meta = map[string]string{}
	}
	metaRows, err := s.db.Query(ctx, `
		SELECT record_id::text, meta_key, meta_value
		FROM content_meta
		WHERE record_id = ANY($1::uuid[])`, ids)
	if err != nil {
		return nil, fmt.Errorf("list content meta: %w", err)
	}
	defer metaRows.Close()
	for metaRows.Next() {
		var id, key, value string
		if err := metaRows.Scan(&id, &key, &value); err != nil {
			return nil, fmt.Errorf("scan content meta: %w", err)
		}
		if i, ok := index[id]; ok {
			records[i].Meta[key] = value
		}
	}
	return records, metaRows.Err()
}

func (s *PostgresStore) Update(ctx context.Context, id, title, status string) (Record, error) {
	if !validID(id) {
		return Record{}, ErrNotFound
	}
	rec, err := scanRecord(s.db.QueryRow(ctx, `
		UPDATE content_records AS r SET title = $2, status = $3, updated_at = $4
		WHERE r.id = $1
		RETURNING `+recordColumns,
		id, title, normalizeStatus(status), s.now().UTC()))
	if err != nil {
		return Record{}, err
	}
	rec.Meta, err = s.Meta(ctx, id)
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (s *PostgresStore) SetStatus(ctx context.Context, id, status string) error {
	if !validID(id) {
		return ErrNotFound
	}
	tag, err := s.db.Exec(ctx, `UPDATE content_records SET status = $2, updated_at = $3 WHERE id = $1`,
		id, normalizeStatus(status), s.now().UTC())
	if err != nil {
		return fmt.Errorf("set content status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return ErrNotFound
	}
	tag, err := s.db.Exec(ctx, `DELETE FROM content_records WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete content record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) exists(ctx context.Context, id string) error {
	var found bool
	if err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM content_records WHERE id = $1)`, id).Scan(&found); err != nil {
		return fmt.Errorf("check content record: %w", err)
	}
	if !found {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Meta(ctx context.Context, id string) (map[string]string, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	if err := s.exists(ctx, id); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(ctx, `SELECT meta_key, meta_value FROM content_meta WHERE record_id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("load content meta: %w", err)
	}
	defer rows.Close()
	meta := map[string]string{}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan content meta: %w", err)
		}
		meta[key] = value
	}
	return meta, rows.Err()
}

func (s *PostgresStore) GetMeta(ctx context.Context, id, key string) (string, bool, error) {
	if !validID(id) {
		return "", false, ErrNotFound
	}
	var value string
	err := s.db.QueryRow(ctx, `SELECT meta_value FROM content_meta WHERE record_id = $1 AND meta_key = $2`, id, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		if err := s.exists(ctx, id); err != nil {
			return "", false, err
		}
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get content meta: %w", err)
	}
	return value, true, nil
}

func (s *PostgresStore) UpdateMeta(ctx context.Context, id, key, value string) error {
	if !validID(id) {
		return ErrNotFound
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO content_meta (record_id, meta_key, meta_value)
		VALUES ($1, $2, $3)
		ON CONFLICT (record_id, meta_key) DO UPDATE SET meta_value = EXCLUDED.meta_value`, id, key, value)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update content meta: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteMeta(ctx context.Context, id, key string) error {
	if !validID(id) {
		return ErrNotFound
	}
	tag, err := s.db.Exec(ctx, `DELETE FROM content_meta WHERE record_id = $1 AND meta_key = $2`, id, key)
	if err != nil {
		return fmt.Errorf("delete content meta: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return s.exists(ctx, id)
	}
	return nil
}

func (s *PostgresStore) FindMaxMetaAtMost(ctx context.Context, typ, status, key string, n int64) (Record, bool, error) {
	rec, err := scanRecord(s.db.QueryRow(ctx, `
		SELECT `+recordColumns+`
		FROM content_records r
		JOIN content_meta m ON m.record_id = r.id AND m.meta_key = $3
		WHERE r.type = $1 AND r.status = $2 AND `+numericMeta+` <= $4
		ORDER BY `+numericMeta+` DESC, r.created_at DESC, r.id
		LIMIT 1`, typ, status, key, n))
	if errors.Is(err, ErrNotFound) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("find content by meta: %w", err)
	}
	return rec, true, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}
