package migration

import (
	"context"
	"fmt"

	"github.com/SusheelSathyaraj/ClicomImport/database"
	"go.mongodb.org/mongo-driver/bson"
)

// in-memory relational source
type MockSource struct {
	data          map[string][]database.Row
	failOnConnect bool
	failOnFetch   string
	closeErr      error

	connected     bool
	connectCalled int
	closeCalled   int
	orderBy       map[string]string
}

func NewMockSource() *MockSource {
	return &MockSource{
		data:    make(map[string][]database.Row),
		orderBy: make(map[string]string),
	}
}

func (m *MockSource) Connect(ctx context.Context) error {
	m.connectCalled++
	if m.failOnConnect {
		return fmt.Errorf("mock connection refused")
	}
	m.connected = true
	return nil
}

func (m *MockSource) Close() error {
	m.closeCalled++
	m.connected = false
	return m.closeErr
}

func (m *MockSource) FetchAll(ctx context.Context, table, orderBy string) ([]database.Row, error) {
	if !m.connected {
		return nil, fmt.Errorf("source not connected")
	}
	if table == m.failOnFetch {
		return nil, fmt.Errorf("mock fetch error for table %s", table)
	}
	m.orderBy[table] = orderBy

	rows := make([]database.Row, 0, len(m.data[table]))
	for _, row := range m.data[table] {
		//creating a copy to avoid modifying original data
		rowCopy := make(database.Row, len(row))
		for k, v := range row {
			rowCopy[k] = v
		}
		rows = append(rows, rowCopy)
	}
	return rows, nil
}

func (m *MockSource) AddTestData(table string, rows []database.Row) {
	m.data[table] = rows
}

// in-memory document target, keeps data across reconnects like a real store
type MockTarget struct {
	collections   map[string][]bson.D
	failOnConnect bool
	failOnInsert  string

	connected     bool
	connectCalled int
	closeCalled   int
	insertCalled  map[string]int
}

func NewMockTarget() *MockTarget {
	return &MockTarget{
		collections:  make(map[string][]bson.D),
		insertCalled: make(map[string]int),
	}
}

func (m *MockTarget) Connect(ctx context.Context) error {
	m.connectCalled++
	if m.failOnConnect {
		return fmt.Errorf("mock server selection timeout")
	}
	m.connected = true
	return nil
}

func (m *MockTarget) Close() error {
	m.closeCalled++
	m.connected = false
	return nil
}

func (m *MockTarget) InsertMany(ctx context.Context, collection string, docs []interface{}) (int, error) {
	m.insertCalled[collection]++
	if !m.connected {
		return 0, fmt.Errorf("target not connected")
	}
	if collection == m.failOnInsert {
		return 0, fmt.Errorf("mock E11000 duplicate key error in %s", collection)
	}
	// same answer as the driver for an empty batch: nothing written
	for _, d := range docs {
		doc, ok := d.(bson.D)
		if !ok {
			return 0, fmt.Errorf("unexpected document type %T", d)
		}
		m.collections[collection] = append(m.collections[collection], doc)
	}
	return len(docs), nil
}

func (m *MockTarget) Documents(collection string) []bson.D {
	return m.collections[collection]
}
