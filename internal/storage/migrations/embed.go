package migrations

import "embed"

// PostgresFS holds the record, lifecycle and trading-day schema files.
//
//go:embed postgres/*.sql
var PostgresFS embed.FS

// ClickhouseFS holds the resolved-cell schema files.
//
//go:embed clickhouse/*.sql
var ClickhouseFS embed.FS
