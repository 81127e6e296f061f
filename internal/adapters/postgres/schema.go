package postgres

import _ "embed"

// SchemaSQL is the full database schema. It is idempotent; tests and the
// bootstrap tooling apply it directly.
//
//go:embed schema.sql
var SchemaSQL string
