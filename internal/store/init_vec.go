//go:build sqlite_vec && cgo

package store

import (
	vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
)

func init() {
	// Auto-load the sqlite-vec extension into every mattn/go-sqlite3
	// connection opened by this process.
	vec.Auto()
}
