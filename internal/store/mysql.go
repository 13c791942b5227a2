package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/iliyamo/hostel-gate-pass/internal/model"
)

// Open connects to MySQL and verifies the connection.
func Open(user, pass, host, port, name string) (*sql.DB, error) {
	auth := user
	if pass != "" {
		auth = fmt.Sprintf("%s:%s", user, pass)
	}
	dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, host, port, name)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	// Ping with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return db, nil
}

// columnFor translates a logical field name into its SQL column.  The
// legacy field names carry spaces and slashes, so the mapping is explicit.
var columns = map[string]string{
	model.FieldRequestID:  "request_id",
	model.FieldRollNumber: "roll_number",
	model.FieldName:       "name",
	model.FieldBatch:      "batch",
	model.FieldCategory:   "category",
	model.FieldOutDate:    "out_date",
	model.FieldInDate:     "in_date",
	model.FieldLocality:   "locality_area",
	model.FieldCity:       "city",
	model.FieldState:      "state",
	model.FieldReason:     "reason",
	model.FieldPhone:      "phone_number",
	model.FieldAltPhone:   "alt_phone_number",
	model.FieldDocuments:  "documents",
	model.FieldStatus:     "status",
	model.FieldOutTime:    "out_time",
	model.FieldInTime:     "in_time",

	model.FieldLegacyRoll:  "old_roll_number",
	model.FieldCurrentRoll: "new_roll_number",
	model.FieldFullName:    "full_name",
	model.FieldToken:       "token",

	model.FieldStaffUsername: "username",
	model.FieldStaffHash:     "password_hash",
	model.FieldStaffRole:     "role",
}

// MySQLStore implements RecordStore on top of MySQL.  Every cell is
// stored as text, mirroring the row-oriented sheet the service grew out
// of: the store stays a dumb table and all interpretation lives in the
// model layer.  No statement here opens a transaction; the adapter
// keeps the same (lack of) consistency contract callers already handle.
type MySQLStore struct {
	db *sql.DB
}

// NewMySQLStore returns a MySQLStore bound to the given database.
func NewMySQLStore(db *sql.DB) *MySQLStore { return &MySQLStore{db: db} }

// DB exposes the underlying handle for health checks.
func (s *MySQLStore) DB() *sql.DB { return s.db }

// EnsureSchema creates any missing tables.  All value columns are TEXT;
// the pass tables key on request_id, the rest get a hidden auto row id.
func (s *MySQLStore) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		passTableDDL(TableActive),
		passTableDDL(TableArchive),
		`CREATE TABLE IF NOT EXISTS directory (
			row_id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
			old_roll_number VARCHAR(64) NOT NULL,
			new_roll_number VARCHAR(64) NOT NULL,
			full_name TEXT NOT NULL,
			batch VARCHAR(64) NOT NULL DEFAULT '',
			token VARCHAR(128) NOT NULL,
			KEY idx_directory_token (token)
		)`,
		`CREATE TABLE IF NOT EXISTS staff (
			row_id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
			username VARCHAR(64) NOT NULL UNIQUE,
			password_hash VARCHAR(128) NOT NULL,
			role VARCHAR(16) NOT NULL
		)`,
	}
	for _, q := range stmts {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

func passTableDDL(table Table) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		request_id BIGINT NOT NULL PRIMARY KEY,
		roll_number VARCHAR(64) NOT NULL,
		name TEXT NOT NULL,
		batch VARCHAR(64) NOT NULL DEFAULT '',
		category VARCHAR(4) NOT NULL DEFAULT '',
		out_date VARCHAR(16) NOT NULL DEFAULT '',
		in_date VARCHAR(16) NOT NULL DEFAULT '',
		locality_area TEXT,
		city TEXT,
		state TEXT,
		reason TEXT,
		phone_number VARCHAR(32) NOT NULL DEFAULT '',
		alt_phone_number VARCHAR(32) NOT NULL DEFAULT '',
		documents TEXT,
		status VARCHAR(8) NOT NULL DEFAULT '',
		out_time VARCHAR(32) NOT NULL DEFAULT '',
		in_time VARCHAR(32) NOT NULL DEFAULT '',
		KEY idx_%s_roll (roll_number)
	)`, table, table)
}

// ListAll returns every row of the table as field-name-keyed maps.
func (s *MySQLStore) ListAll(ctx context.Context, table Table) ([]Row, error) {
	schema, err := schemaFor(table)
	if err != nil {
		return nil, err
	}
	cols := make([]string, len(schema.fields))
	for i, f := range schema.fields {
		cols[i] = columns[f]
	}
	q := fmt.Sprintf("SELECT %s FROM %s", strings.Join(cols, ", "), table)
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Row, 0)
	vals := make([]sql.NullString, len(cols))
	ptrs := make([]interface{}, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(Row, len(schema.fields))
		for i, f := range schema.fields {
			row[f] = vals[i].String
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// Append inserts one row.  Fields missing from the map default to "".
func (s *MySQLStore) Append(ctx context.Context, table Table, row Row) error {
	schema, err := schemaFor(table)
	if err != nil {
		return err
	}
	cols := make([]string, len(schema.fields))
	marks := make([]string, len(schema.fields))
	args := make([]interface{}, len(schema.fields))
	for i, f := range schema.fields {
		cols[i] = columns[f]
		marks[i] = "?"
		args[i] = row[f]
	}
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(cols, ", "), strings.Join(marks, ", "))
	_, err = s.db.ExecContext(ctx, q, args...)
	return err
}

// UpdateCell overwrites a single field of the row keyed by rowID.
func (s *MySQLStore) UpdateCell(ctx context.Context, table Table, rowID int64, field, value string) error {
	schema, err := schemaFor(table)
	if err != nil {
		return err
	}
	if schema.keyField == "" {
		return ErrTableImmutable
	}
	if !schema.hasField(field) {
		return ErrUnknownField
	}
	q := fmt.Sprintf("UPDATE %s SET %s = ? WHERE %s = ?",
		table, columns[field], columns[schema.keyField])
	res, err := s.db.ExecContext(ctx, q, value, rowID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	// n == 0 can also mean the value was already set; re-check existence
	// before reporting a missing row.
	if n == 0 {
		var one int
		check := fmt.Sprintf("SELECT 1 FROM %s WHERE %s = ?", table, columns[schema.keyField])
		if err := s.db.QueryRowContext(ctx, check, rowID).Scan(&one); err != nil {
			if err == sql.ErrNoRows {
				return ErrRowNotFound
			}
			return err
		}
	}
	return nil
}

// DeleteRow removes the row keyed by rowID.
func (s *MySQLStore) DeleteRow(ctx context.Context, table Table, rowID int64) error {
	schema, err := schemaFor(table)
	if err != nil {
		return err
	}
	if schema.keyField == "" {
		return ErrTableImmutable
	}
	q := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", table, columns[schema.keyField])
	res, err := s.db.ExecContext(ctx, q, rowID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRowNotFound
	}
	return nil
}
