package data

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	clickhouse "github.com/ClickHouse/clickhouse-go/v2"

	bterrors "github.com/edocame/bollinger-backtest/internal/errors"
	"github.com/edocame/bollinger-backtest/pkg/types"
)

// ClickHouseConfig holds connection settings for a ClickHouse tick store
type ClickHouseConfig struct {
	DSN      string
	Database string
	Table    string
	User     string
	Password string
}

// DefaultClickHouseConfig reads connection settings from the environment
// with the same defaults the ingestion scripts use
func DefaultClickHouseConfig() ClickHouseConfig {
	return ClickHouseConfig{
		DSN:      envOr("CLICKHOUSE_DSN", "clickhouse://default:@localhost:9000?secure=false&compress=lz4"),
		Database: envOr("CH_DATABASE", "backtest"),
		Table:    envOr("CH_TABLE", "quotes"),
		User:     envOr("CH_USER", "backtest"),
		Password: envOr("CH_PASSWORD", "backtest123"),
	}
}

// ClickHouseProvider implements DataProvider backed by a ClickHouse
// quotes table. The source string passed to LoadData is the symbol.
type ClickHouseProvider struct {
	cfg  ClickHouseConfig
	conn clickhouse.Conn
	ctx  context.Context
}

// NewClickHouseProvider opens a connection and verifies it with a ping
func NewClickHouseProvider(ctx context.Context, cfg ClickHouseConfig) (*ClickHouseProvider, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{dsnHost(cfg.DSN)},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.User,
			Password: cfg.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": uint64(0),
		},
	})
	if err != nil {
		return nil, bterrors.NewDataError("clickhouse", "open", err)
	}
	if err := conn.Ping(ctx); err != nil {
		return nil, bterrors.NewDataError("clickhouse", "ping", err)
	}
	return &ClickHouseProvider{cfg: cfg, conn: conn, ctx: ctx}, nil
}

// GetName returns the name of the data provider
func (p *ClickHouseProvider) GetName() string {
	return "ClickHouse Provider"
}

// LoadData loads all quotes for a symbol in chronological order
func (p *ClickHouseProvider) LoadData(symbol string) ([]types.Bar, error) {
	query := fmt.Sprintf(`
        SELECT ts, bid, ask
        FROM %s.%s
        WHERE symbol = ?
        ORDER BY ts ASC
    `, p.cfg.Database, p.cfg.Table)

	rows, err := p.conn.Query(p.ctx, query, strings.ToUpper(symbol))
	if err != nil {
		return nil, bterrors.NewDataError("clickhouse", "query", err)
	}
	defer rows.Close()

	var data []types.Bar
	for rows.Next() {
		var (
			ts       time.Time
			bid, ask float64
		)
		if err := rows.Scan(&ts, &bid, &ask); err != nil {
			return nil, bterrors.NewDataError("clickhouse", "scan", err)
		}
		data = append(data, types.Bar{
			Timestamp: ts,
			Bid:       bid,
			Ask:       ask,
			Mid:       (bid + ask) / 2,
		})
	}
	return data, rows.Err()
}

// ValidateData reuses the CSV provider's bar validation
func (p *ClickHouseProvider) ValidateData(data []types.Bar) error {
	return NewCSVProvider().ValidateData(data)
}

// Close releases the underlying connection
func (p *ClickHouseProvider) Close() error {
	return p.conn.Close()
}

func dsnHost(dsn string) string {
	host := "localhost:9000"
	if i := strings.Index(dsn, "@"); i != -1 {
		rest := dsn[i+1:]
		if j := strings.Index(rest, "?"); j != -1 {
			host = rest[:j]
		} else {
			host = rest
		}
		host = strings.TrimPrefix(host, "/")
		host = strings.TrimPrefix(host, "//")
	}
	return host
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
