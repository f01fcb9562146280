//go:build !cgo_sqlite

package main

import (
	"database/sql"

	_ "modernc.org/sqlite"
)

// initDB opens the model store with the pure-Go SQLite driver, the default
// so the binary builds without cgo. Build with -tags cgo_sqlite to use the
// cgo driver instead.
func initDB(dataSource string) (*sql.DB, error) {
	return sql.Open("sqlite", dataSource)
}
