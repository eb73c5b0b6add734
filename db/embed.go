// Package db embeds the database schema applied at startup.
package db

import _ "embed"

// Schema contains the DDL for all tables, including the append-only
// ledger_entries table.
//
//go:embed migrations/001_schema.sql
var Schema string
