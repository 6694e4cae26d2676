package clickhouse

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDSN(t *testing.T) {
	dsn := buildDSN(ClientConfig{
		Host:        "ch",
		Port:        9000,
		Database:    "quant",
		User:        "reader",
		Password:    "p@ss",
		DialTimeout: 5 * time.Second,
		MaxExecTime: 30 * time.Second,
	})
	assert.True(t, strings.HasPrefix(dsn, "clickhouse://reader:p%40ss@ch:9000/quant?"), dsn)
	assert.Contains(t, dsn, "dial_timeout=5s")
	assert.Contains(t, dsn, "max_execution_time=30")
	assert.NotContains(t, dsn, "read_timeout")

	httpDSN := buildDSN(ClientConfig{Host: "ch", Port: 8123, Database: "default", UseHTTP: true})
	assert.True(t, strings.HasPrefix(httpDSN, "http://"), httpDSN)
}

func TestNewClientRequiresHost(t *testing.T) {
	_, err := NewClient()
	assert.Error(t, err)
}

func TestInitSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	stmts := ClosesSchema("quant", "closes")
	require.Len(t, stmts, 2)
	assert.Contains(t, stmts[1], "quant.closes")

	mock.ExpectExec("CREATE DATABASE IF NOT EXISTS quant").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS quant.closes").WillReturnError(errors.New("boom"))

	c := NewClientFromDB(db)
	err = c.InitSchema(context.Background(), stmts)
	assert.ErrorContains(t, err, "init schema")
	assert.NoError(t, mock.ExpectationsWereMet())
}
