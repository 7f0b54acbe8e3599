package database

import "context"

// Row is one source row keyed by column name.
type Row = map[string]interface{}

// relational side of the import, read only
type SourceDatabase interface {
	Connect(ctx context.Context) error
	Close() error
	// FetchAll reads every row of table. An empty orderBy leaves the order to the source.
	FetchAll(ctx context.Context, table, orderBy string) ([]Row, error)
}

// document side of the import, insert only
type TargetDatabase interface {
	Connect(ctx context.Context) error
	Close() error
	// InsertMany writes docs to collection in one batch and returns how many were inserted.
	InsertMany(ctx context.Context, collection string, docs []interface{}) (int, error)
}
