package database

import (
	"database/sql"
	"fmt"
	"reflect"
	"regexp"
	"strings"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// rejects anything that is not a plain table or column name
func validateIdentifier(identifier string) error {
	if !identifierPattern.MatchString(identifier) {
		return fmt.Errorf("invalid identifier %q", identifier)
	}
	return nil
}

// splits a comma separated ORDER BY list and validates each column
func splitOrderBy(orderBy string) ([]string, error) {
	if strings.TrimSpace(orderBy) == "" {
		return nil, nil
	}
	var columns []string
	for _, col := range strings.Split(orderBy, ",") {
		col = strings.TrimSpace(col)
		if err := validateIdentifier(col); err != nil {
			return nil, err
		}
		columns = append(columns, col)
	}
	return columns, nil
}

// scans every row into a map, converting []byte values to string.
// renameColumn may be nil.
func scanRows(rows *sql.Rows, renameColumn func(string) string) ([]Row, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get column names: %w", err)
	}

	results := make([]Row, 0)

	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuesPtr := make([]interface{}, len(columns))
		for i := range values {
			valuesPtr[i] = &values[i]
		}

		if err := rows.Scan(valuesPtr...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		rowMap := make(Row, len(columns))
		for i, colName := range columns {
			if renameColumn != nil {
				colName = renameColumn(colName)
			}
			if b, ok := values[i].([]byte); ok {
				rowMap[colName] = string(b)
			} else {
				rowMap[colName] = values[i]
			}
		}
		results = append(results, rowMap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}
	return results, nil
}

// NormalizeKey makes key values from different drivers comparable: every
// integer kind becomes int64 and []byte becomes string. Other values are
// returned unchanged.
func NormalizeKey(v interface{}) interface{} {
	switch k := v.(type) {
	case nil:
		return nil
	case []byte:
		return string(k)
	case int64, string:
		return k
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if u := rv.Uint(); u <= 1<<63-1 {
			return int64(u)
		}
	}
	if !rv.Type().Comparable() {
		return fmt.Sprint(v)
	}
	return v
}
