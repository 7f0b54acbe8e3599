package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/SusheelSathyaraj/ClicomImport/config"

	"github.com/lib/pq"
)

// PostgreSQLClient reads the same schema from PostgreSQL. Tables created
// without quotes are folded to lower case there, so table names are lowered
// before querying and column names are upper-cased on the way back.
type PostgreSQLClient struct {
	User     string
	Password string
	Host     string
	Port     int
	DBName   string
	DB       *sql.DB
}

func NewPostgreSQLClient(user, password, host string, port int, dbname string) *PostgreSQLClient {
	return &PostgreSQLClient{
		User:     user,
		Password: password,
		Host:     host,
		Port:     port,
		DBName:   dbname,
	}
}

func NewPostgreSQLClientFromConfig(cfg *config.Config) *PostgreSQLClient {
	return NewPostgreSQLClient(cfg.Source.User, cfg.Source.Password, cfg.Source.Host, cfg.Source.Port, cfg.Source.DBName)
}

// DSN in URL form so credentials with spaces or quotes survive escaping
func (p *PostgreSQLClient) DSN() string {
	dsn := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(p.User, p.Password),
		Host:     net.JoinHostPort(p.Host, strconv.Itoa(p.Port)),
		Path:     "/" + p.DBName,
		RawQuery: "sslmode=disable",
	}
	return dsn.String()
}

// connect to Postgresql database
func (p *PostgreSQLClient) Connect(ctx context.Context) error {
	db, err := sql.Open("postgres", p.DSN())
	if err != nil {
		return fmt.Errorf("failed to open PostgreSQL connection: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping the PostgreSQL database: %w", err)
	}
	p.DB = db
	return nil
}

func (p *PostgreSQLClient) Close() error {
	if p.DB == nil {
		return nil
	}
	err := p.DB.Close()
	p.DB = nil
	return err
}

func (p *PostgreSQLClient) FetchAll(ctx context.Context, table, orderBy string) ([]Row, error) {
	if p.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	query, err := postgresSelectAll(table, orderBy)
	if err != nil {
		return nil, err
	}

	rows, err := p.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query table %s: %w", table, err)
	}
	defer rows.Close()

	results, err := scanRows(rows, strings.ToUpper)
	if err != nil {
		return nil, fmt.Errorf("error fetching data from the table %s: %w", table, err)
	}
	return results, nil
}

func postgresSelectAll(table, orderBy string) (string, error) {
	if err := validateIdentifier(table); err != nil {
		return "", err
	}
	columns, err := splitOrderBy(orderBy)
	if err != nil {
		return "", err
	}

	query := "SELECT * FROM " + pq.QuoteIdentifier(strings.ToLower(table))
	if len(columns) > 0 {
		quoted := make([]string, len(columns))
		for i, col := range columns {
			quoted[i] = pq.QuoteIdentifier(strings.ToLower(col))
		}
		query += " ORDER BY " + strings.Join(quoted, ", ")
	}
	return query, nil
}
