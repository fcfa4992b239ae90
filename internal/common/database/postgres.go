// internal/common/database/postgres.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	"provision-search/internal/common/config"
	"provision-search/internal/models"

	_ "github.com/lib/pq"
)

// PostgresClient wraps the SQL database connection for one data source.
type PostgresClient struct {
	DB *sql.DB
}

// NewPostgres creates a new PostgreSQL client
func NewPostgres(cfg config.PostgresConfig) (*PostgresClient, error) {
	dsn := cfg.GetDSN()

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &PostgresClient{DB: db}, nil
}

// NewPostgresFromDB wraps an existing *sql.DB (used by tests).
func NewPostgresFromDB(db *sql.DB) *PostgresClient {
	return &PostgresClient{DB: db}
}

// Ping tests the database connection
func (c *PostgresClient) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

// Close closes the database connection
func (c *PostgresClient) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

var namedParamPattern = regexp.MustCompile(`:([a-zA-Z_][a-zA-Z0-9_]*)`)

// RewriteNamedParams converts a query using :name bind markers into the
// positional $n form lib/pq expects. Positions are assigned by the first
// occurrence of each name in the query text; the returned args are ordered
// to match. Compiled filters guarantee unique names, so each marker maps
// to exactly one argument.
func RewriteNamedParams(query string, params []models.BindParam) (string, []interface{}, error) {
	values := make(map[string]interface{}, len(params))
	for _, p := range params {
		values[p.Name] = p.Value
	}

	position := make(map[string]int, len(params))
	args := make([]interface{}, 0, len(params))
	var missing error

	rewritten := namedParamPattern.ReplaceAllStringFunc(query, func(match string) string {
		name := match[1:]
		if pos, seen := position[name]; seen {
			return fmt.Sprintf("$%d", pos)
		}
		val, ok := values[name]
		if !ok {
			if missing == nil {
				missing = fmt.Errorf("no value bound for parameter %q", name)
			}
			return match
		}
		args = append(args, val)
		position[name] = len(args)
		return fmt.Sprintf("$%d", len(args))
	})

	if missing != nil {
		return "", nil, missing
	}
	return rewritten, args, nil
}

// Execute runs a compiled query and materializes the rows as column-keyed
// maps. Byte-valued columns are converted to strings so result rows stay
// JSON-friendly.
func (c *PostgresClient) Execute(ctx context.Context, query string, params []models.BindParam) (*models.QueryResult, error) {
	rewritten, args, err := RewriteNamedParams(query, params)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	rows, err := c.DB.QueryContext(ctx, rewritten, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := []models.Row{}
	for rows.Next() {
		scanned := make([]interface{}, len(columns))
		ptrs := make([]interface{}, len(columns))
		for i := range scanned {
			ptrs[i] = &scanned[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		row := make(models.Row, len(columns))
		for i, col := range columns {
			if b, ok := scanned[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = scanned[i]
			}
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &models.QueryResult{
		Success:       true,
		Rows:          result,
		Columns:       columns,
		Count:         len(result),
		ExecutionTime: time.Since(start).Milliseconds(),
	}, nil
}

// DistinctValues returns the sorted distinct non-null values of a column,
// used to populate selector catalogs.
func (c *PostgresClient) DistinctValues(ctx context.Context, table, column string) ([]string, error) {
	query := fmt.Sprintf("SELECT DISTINCT %s FROM %s WHERE %s IS NOT NULL ORDER BY %s", column, table, column, column)

	rows, err := c.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// GetDB returns the underlying *sql.DB for compatibility
func (c *PostgresClient) GetDB() *sql.DB {
	return c.DB
}
