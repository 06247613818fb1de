// database/connection.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net"

	"github.com/go-sql-driver/mysql" // MariaDB/MySQL driver

	"github.com/kyipho/wikilynx/config"
)

// Role selects credentials and connection settings.
type Role int

const (
	// RoleReader is a pooled, SELECT-only connection for the API and registry reads.
	RoleReader Role = iota
	// RoleAdmin is a single connection able to run multi-statement dump scripts.
	RoleAdmin
)

func (r Role) String() string {
	if r == RoleAdmin {
		return "admin"
	}
	return "reader"
}

// DSN builds the driver DSN for role.
func DSN(cfg config.DatabaseConfig, role Role) string {
	mc := mysql.NewConfig()
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(cfg.Host, cfg.Port)
	mc.DBName = cfg.DBName
	mc.ParseTime = true

	switch role {
	case RoleAdmin:
		mc.User = cfg.Admin.User
		mc.Passwd = cfg.Admin.Password
		// dump files hold many statements per script
		mc.MultiStatements = true
		// UPDATE reports matched rows, so an unchanged date still counts as found
		mc.ClientFoundRows = true
	default:
		mc.User = cfg.Reader.User
		mc.Passwd = cfg.Reader.Password
	}
	return mc.FormatDSN()
}

// Open opens and pings a connection for role. The caller owns the handle and
// must Close it.
func Open(ctx context.Context, cfg config.DatabaseConfig, role Role) (*sql.DB, error) {
	db, err := sql.Open("mysql", DSN(cfg, role))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database connection: %w", role, err)
	}

	if role == RoleAdmin {
		// one connection per run keeps the refresh on a single transaction
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	} else {
		maxOpen := cfg.MaxOpenConns
		if maxOpen <= 0 {
			maxOpen = 10
		}
		db.SetMaxOpenConns(maxOpen)
		db.SetMaxIdleConns(maxOpen)
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close() // Close the connection if ping fails
		return nil, fmt.Errorf("failed to ping %s database: %w", role, err)
	}

	slog.Info("Database: connection established", "role", role.String(), "addr", net.JoinHostPort(cfg.Host, cfg.Port), "db", cfg.DBName)
	return db, nil
}

// AdminOpener returns a function that opens a fresh admin connection on each call.
func AdminOpener(cfg config.DatabaseConfig) func(ctx context.Context) (*sql.DB, error) {
	return func(ctx context.Context) (*sql.DB, error) {
		return Open(ctx, cfg, RoleAdmin)
	}
}

// Execer is the mutation surface of *sql.DB and *sql.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Querier is the read surface of *sql.DB and *sql.Tx.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}
