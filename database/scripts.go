// database/scripts.go
package database

import _ "embed"

// DefaultCascadeScript rebuilds tbl_1a and tbl_2b from the refreshed base tables.
//
//go:embed scripts/setup.sql
var DefaultCascadeScript string
