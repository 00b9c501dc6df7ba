/*
Copyright Eclipse Tractus-X Contributors.

SPDX-License-Identifier: Apache-2.0
*/

// Package mysql implements the status list store on MySQL. One row per
// (issuer BPN, purpose) holds the capacity, cursor, encoded bitstring and a
// version column used for optimistic concurrency.
package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/eclipse-tractusx/ssi-trust-go/component/identity"
	"github.com/eclipse-tractusx/ssi-trust-go/component/vc/statuslist/api"
)

const (
	defaultTableName = "status_lists"

	mysqlDuplicateEntry = 1062

	failureWhileOpeningConnectionErrMsg = "failure while opening connection to %s: %w"
	failureWhilePingingErrMsg           = "failure while pinging MySQL at %s: %w"
	failureWhileCreatingTableErrMsg     = "failure while creating table %s: %w"
)

const createTableStmt = "CREATE TABLE IF NOT EXISTS `%s` (" +
	"`issuer` varchar(16) NOT NULL, " +
	"`purpose` varchar(32) NOT NULL, " +
	"`capacity` int NOT NULL, " +
	"`cursor` int NOT NULL, " +
	"`encoded_list` mediumtext NOT NULL, " +
	"`version` bigint NOT NULL, " +
	"PRIMARY KEY (`issuer`, `purpose`))"

// Store is a MySQL implementation of api.Store.
type Store struct {
	db        *sql.DB
	tableName string
}

// Option configures the MySQL store.
type Option func(*Store)

// WithTableName overrides the status list table name.
func WithTableName(name string) Option {
	return func(s *Store) {
		s.tableName = name
	}
}

// NewStore connects to MySQL with the given data source name and provisions
// the status list table.
// Example DSN: root:my-secret-pw@tcp(127.0.0.1:3306)/ssitrust
func NewStore(dsn string, opts ...Option) (*Store, error) {
	if dsn == "" {
		return nil, errors.New("DSN is mandatory")
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf(failureWhileOpeningConnectionErrMsg, dsn, err)
	}

	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf(failureWhilePingingErrMsg, dsn, err)
	}

	store := &Store{
		db:        db,
		tableName: defaultTableName,
	}

	for _, opt := range opts {
		opt(store)
	}

	if _, err = db.Exec(fmt.Sprintf(createTableStmt, store.tableName)); err != nil {
		return nil, fmt.Errorf(failureWhileCreatingTableErrMsg, store.tableName, err)
	}

	return store, nil
}

// Get returns the record for the (issuer, purpose) pair.
func (s *Store) Get(ctx context.Context, issuer identity.BPN, purpose api.Purpose) (*api.Record, error) {
	record := &api.Record{
		Issuer:  issuer,
		Purpose: purpose,
	}

	row := s.db.QueryRowContext(ctx,
		"SELECT `capacity`, `cursor`, `encoded_list`, `version` FROM `"+s.tableName+
			"` WHERE `issuer` = ? AND `purpose` = ?",
		issuer.String(), string(purpose))

	err := row.Scan(&record.Capacity, &record.Cursor, &record.EncodedList, &record.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, api.ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failure while querying row: %w", err)
	}

	return record, nil
}

// Create inserts a new record at version 1.
func (s *Store) Create(ctx context.Context, record *api.Record) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO `"+s.tableName+"` (`issuer`, `purpose`, `capacity`, `cursor`, `encoded_list`, `version`) "+
			"VALUES (?, ?, ?, ?, ?, 1)",
		record.Issuer.String(), string(record.Purpose), record.Capacity, record.Cursor, record.EncodedList)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
			return api.ErrDuplicate
		}

		return fmt.Errorf("failure while executing insert statement on table %s: %w", s.tableName, err)
	}

	record.Version = 1

	return nil
}

// Update writes the record back under a version compare-and-swap.
func (s *Store) Update(ctx context.Context, record *api.Record) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE `"+s.tableName+"` SET `capacity` = ?, `cursor` = ?, `encoded_list` = ?, `version` = `version` + 1 "+
			"WHERE `issuer` = ? AND `purpose` = ? AND `version` = ?",
		record.Capacity, record.Cursor, record.EncodedList,
		record.Issuer.String(), string(record.Purpose), record.Version)
	if err != nil {
		return fmt.Errorf("failure while executing update statement on table %s: %w", s.tableName, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failure while reading affected rows: %w", err)
	}

	if affected == 0 {
		if _, err := s.Get(ctx, record.Issuer, record.Purpose); errors.Is(err, api.ErrNotFound) {
			return api.ErrNotFound
		}

		return api.ErrVersionConflict
	}

	record.Version++

	return nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failure while closing MySQL connection: %w", err)
	}

	return nil
}
