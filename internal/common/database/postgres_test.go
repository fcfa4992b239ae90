package database

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"provision-search/internal/models"
)

// ==========================
// Named Parameter Rewriting Tests
// ==========================

func TestRewriteNamedParams(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		params    []models.BindParam
		wantQuery string
		wantArgs  []interface{}
	}{
		{
			name:      "no parameters",
			query:     "SELECT 1",
			params:    nil,
			wantQuery: "SELECT 1",
			wantArgs:  []interface{}{},
		},
		{
			name:  "positions follow first occurrence order",
			query: "SELECT * FROM T WHERE A = :second AND B = :first",
			params: []models.BindParam{
				{Name: "first", Value: "f"},
				{Name: "second", Value: "s"},
			},
			wantQuery: "SELECT * FROM T WHERE A = $1 AND B = $2",
			wantArgs:  []interface{}{"s", "f"},
		},
		{
			name:  "repeated name reuses its position",
			query: "SELECT * FROM T WHERE A = :v OR B = :v",
			params: []models.BindParam{
				{Name: "v", Value: "x"},
			},
			wantQuery: "SELECT * FROM T WHERE A = $1 OR B = $1",
			wantArgs:  []interface{}{"x"},
		},
		{
			name: "in-list markers",
			query: "SELECT * FROM T WHERE C IN (:protocol_1, :protocol_2, :protocol_3)",
			params: []models.BindParam{
				{Name: "protocol_1", Value: "a"},
				{Name: "protocol_2", Value: "b"},
				{Name: "protocol_3", Value: "c"},
			},
			wantQuery: "SELECT * FROM T WHERE C IN ($1, $2, $3)",
			wantArgs:  []interface{}{"a", "b", "c"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotQuery, gotArgs, err := RewriteNamedParams(tt.query, tt.params)

			require.NoError(t, err)
			assert.Equal(t, tt.wantQuery, gotQuery)
			assert.Equal(t, tt.wantArgs, gotArgs)
		})
	}
}

func TestRewriteNamedParams_UnboundNameFails(t *testing.T) {
	_, _, err := RewriteNamedParams("SELECT * FROM T WHERE A = :nowhere", nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "nowhere")
}

// ==========================
// Query Execution Tests
// ==========================

func TestExecute_MaterializesRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	client := NewPostgresFromDB(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT PROTOCOL, CIRCUIT FROM SERVICE_ORDERS WHERE PROTOCOL IN ($1, $2)")).
		WithArgs("00123", "00456").
		WillReturnRows(sqlmock.NewRows([]string{"PROTOCOL", "CIRCUIT"}).
			AddRow([]byte("00123"), "C1").
			AddRow([]byte("00456"), nil))

	result, err := client.Execute(context.Background(),
		"SELECT PROTOCOL, CIRCUIT FROM SERVICE_ORDERS WHERE PROTOCOL IN (:protocol_1, :protocol_2)",
		[]models.BindParam{
			{Name: "protocol_1", Value: "00123"},
			{Name: "protocol_2", Value: "00456"},
		})

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 2, result.Count)
	assert.Equal(t, []string{"PROTOCOL", "CIRCUIT"}, result.Columns)

	// Byte-valued columns come back as strings.
	assert.Equal(t, "00123", result.Rows[0]["PROTOCOL"])
	assert.Equal(t, "C1", result.Rows[0]["CIRCUIT"])
	assert.Nil(t, result.Rows[1]["CIRCUIT"])

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecute_EmptyResultIsSuccess(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	client := NewPostgresFromDB(db)

	mock.ExpectQuery("SELECT .* FROM SERVICE_ORDERS").
		WillReturnRows(sqlmock.NewRows([]string{"PROTOCOL"}))

	result, err := client.Execute(context.Background(),
		"SELECT PROTOCOL FROM SERVICE_ORDERS WHERE 1=1", nil)

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Zero(t, result.Count)
	assert.Empty(t, result.Rows)
}

func TestExecute_QueryErrorPropagates(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	client := NewPostgresFromDB(db)

	mock.ExpectQuery("SELECT .* FROM SERVICE_ORDERS").
		WillReturnError(errors.New("relation does not exist"))

	result, err := client.Execute(context.Background(),
		"SELECT PROTOCOL FROM SERVICE_ORDERS WHERE 1=1", nil)

	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "relation does not exist")
}

// ==========================
// Catalog Query Tests
// ==========================

func TestDistinctValues(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	client := NewPostgresFromDB(db)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT DISTINCT LOCALITY FROM SERVICE_ORDERS WHERE LOCALITY IS NOT NULL ORDER BY LOCALITY")).
		WillReturnRows(sqlmock.NewRows([]string{"LOCALITY"}).
			AddRow("METRO-EAST").
			AddRow("METRO-WEST"))

	values, err := client.DistinctValues(context.Background(), "SERVICE_ORDERS", "LOCALITY")

	require.NoError(t, err)
	assert.Equal(t, []string{"METRO-EAST", "METRO-WEST"}, values)
	assert.NoError(t, mock.ExpectationsWereMet())
}
