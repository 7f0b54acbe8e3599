package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/SusheelSathyaraj/ClicomImport/config"

	"github.com/go-sql-driver/mysql"
)

type MySQLClient struct {
	User     string
	Password string
	Host     string
	Port     int
	DBName   string
	DB       *sql.DB
}

// create a MySQL client using manual parameters, (for tests)
func NewMySQLClient(user, password, host string, port int, dbname string) *MySQLClient {
	return &MySQLClient{
		User:     user,
		Password: password,
		Host:     host,
		Port:     port,
		DBName:   dbname,
	}
}

// create a new MySQL client using the source section of the config
func NewMySQLClientFromConfig(cfg *config.Config) *MySQLClient {
	return NewMySQLClient(cfg.Source.User, cfg.Source.Password, cfg.Source.Host, cfg.Source.Port, cfg.Source.DBName)
}

// DSN builds the driver connection string. parseTime makes DATE columns scan as time.Time.
func (c *MySQLClient) DSN() string {
	dsnConfig := mysql.NewConfig()
	dsnConfig.User = c.User
	dsnConfig.Passwd = c.Password
	dsnConfig.Net = "tcp"
	dsnConfig.Addr = net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
	dsnConfig.DBName = c.DBName
	dsnConfig.ParseTime = true
	return dsnConfig.FormatDSN()
}

// to connect with the MySQL DB
func (c *MySQLClient) Connect(ctx context.Context) error {
	db, err := sql.Open("mysql", c.DSN())
	if err != nil {
		return fmt.Errorf("failed to open MySQL connection: %w", err)
	}

	// one connection, held for the whole run
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping the MySQL database: %w", err)
	}

	c.DB = db
	return nil
}

// closes the database connection
func (c *MySQLClient) Close() error {
	if c.DB == nil {
		return nil
	}
	err := c.DB.Close()
	c.DB = nil
	return err
}

// reads every row of the table
func (c *MySQLClient) FetchAll(ctx context.Context, table, orderBy string) ([]Row, error) {
	if c.DB == nil {
		return nil, fmt.Errorf("db connection not established")
	}

	query, err := mysqlSelectAll(table, orderBy)
	if err != nil {
		return nil, err
	}

	rows, err := c.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query table %s: %w", table, err)
	}
	defer rows.Close()

	results, err := scanRows(rows, nil)
	if err != nil {
		return nil, fmt.Errorf("error fetching data from the table %s: %w", table, err)
	}
	return results, nil
}

// builds SELECT * with backtick quoted identifiers
func mysqlSelectAll(table, orderBy string) (string, error) {
	if err := validateIdentifier(table); err != nil {
		return "", err
	}
	columns, err := splitOrderBy(orderBy)
	if err != nil {
		return "", err
	}

	query := fmt.Sprintf("SELECT * FROM `%s`", table)
	if len(columns) > 0 {
		quoted := make([]string, len(columns))
		for i, col := range columns {
			quoted[i] = "`" + col + "`"
		}
		query += " ORDER BY " + strings.Join(quoted, ", ")
	}
	return query, nil
}
