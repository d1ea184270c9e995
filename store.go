package main

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Store keeps memoized upstream responses in an in-memory sqlite database.
// Nothing is written to disk; the data goes away with the process.
type Store struct {
	db  *sql.DB
	log *log.Logger
}

const reqTable string = `
  CREATE TABLE IF NOT EXISTS reqdata (
      hash TEXT PRIMARY KEY,
      httpdata BLOB NOT NULL,
      expiry INT NOT NULL
  )
`

func NewStore() (*Store, error) {
	logger := log.New(os.Stderr, "(store) ", log.LstdFlags)

	// Every store gets its own named memory database so two stores in one
	// process never see each other's rows.
	dsn := fmt.Sprintf("file:reqcache-%s?mode=memory&cache=shared", uuid.NewString())
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open request store: %w", err)
	}
	// A shared-cache memory database lives only while a connection is open.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	if _, err = db.Exec(reqTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("create reqdata table: %w", err)
	}

	return &Store{
		db:  db,
		log: logger,
	}, nil
}

func (store *Store) Close() error {
	return store.db.Close()
}

func (store *Store) DeleteBefore(expiry int64) int64 {
	res, err := store.db.Exec("DELETE FROM reqdata WHERE expiry < ?", expiry)
	if err != nil {
		dbError(store.log, err)
		return 0
	}
	n, _ := res.RowsAffected()
	return n
}

// GetResponse returns the stored response for hash unless it expired before now.
func (store *Store) GetResponse(hash string, now int64) ([]byte, bool) {
	row := store.db.QueryRow("SELECT httpdata FROM reqdata WHERE hash = ? AND expiry >= ?", hash, now)
	var data []byte
	err := row.Scan(&data)
	if err == nil {
		return data, true
	}
	if !errors.Is(err, sql.ErrNoRows) {
		dbError(store.log, err)
	}
	return nil, false
}

func (store *Store) StoreResponse(hash string, res []byte, expiry int64) {
	_, err := store.db.Exec("INSERT OR REPLACE INTO reqdata (hash, httpdata, expiry) VALUES (?,?,?)",
		hash,
		res,
		expiry,
	)
	if err != nil {
		dbError(store.log, err)
	}
}

func (store *Store) Count() int {
	var n int
	if err := store.db.QueryRow("SELECT COUNT(*) FROM reqdata").Scan(&n); err != nil {
		dbError(store.log, err)
	}
	return n
}

func dbError(log *log.Logger, err error) {
	if err != nil {
		log.Println("DB Error", err.Error())
	}
}
