package datarecording

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/tebeka/atexit"
)

// ClickHouseOptions locates a ClickHouse server.
type ClickHouseOptions struct {
	Host      string
	Port      int
	Database  string
	Username  string
	Password  string
	BatchSize int
}

// ClickHouseRecorder writes topology tables into ClickHouse. It only accepts
// the entry types of the TopologyRecorder.
type ClickHouseRecorder struct {
	conn      clickhouse.Conn
	mu        sync.Mutex
	batchSize int

	tables     map[string][][]any
	entryCount int
}

// NewClickHouseRecorder connects to ClickHouse and verifies the connection.
func NewClickHouseRecorder(opts ClickHouseOptions) (*ClickHouseRecorder, error) {
	if opts.BatchSize == 0 {
		opts.BatchSize = 100000
	}

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", opts.Host, opts.Port)},
		Auth: clickhouse.Auth{
			Database: opts.Database,
			Username: opts.Username,
			Password: opts.Password,
		},
		DialTimeout:      30 * time.Second,
		MaxOpenConns:     5,
		MaxIdleConns:     5,
		ConnMaxLifetime:  time.Hour,
		ConnOpenStrategy: clickhouse.ConnOpenInOrder,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	r := &ClickHouseRecorder{
		conn:      conn,
		batchSize: opts.BatchSize,
		tables:    make(map[string][][]any),
	}

	atexit.Register(func() { r.Flush() })

	return r, nil
}

// clickHouseSchema returns the CREATE TABLE statement for an entry type.
func clickHouseSchema(tableName string, sampleEntry any) (string, error) {
	var columns, orderBy string

	switch sampleEntry.(type) {
	case ComponentEntry:
		columns = "Name String, Type String, Role String, Parent String"
		orderBy = "Name"
	case ComponentParamEntry:
		columns = "Component String, ParamKey String, ParamValue String"
		orderBy = "(Component, ParamKey)"
	case LinkEntry:
		columns = "Name String"
		orderBy = "Name"
	case LinkEndEntry:
		columns = "Link String, EndIndex Int64, Component String, " +
			"Port String, LatencyPS UInt64"
		orderBy = "(Link, EndIndex)"
	case UncuttableLinkEntry:
		columns = "Link String"
		orderBy = "Link"
	default:
		return "", fmt.Errorf("unsupported entry type %T", sampleEntry)
	}

	return fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (%s) ENGINE = MergeTree() ORDER BY %s",
		tableName, columns, orderBy), nil
}

// clickHouseRow returns the column values of an entry in schema order.
func clickHouseRow(entry any) ([]any, error) {
	switch e := entry.(type) {
	case ComponentEntry:
		return []any{e.Name, e.Type, e.Role, e.Parent}, nil
	case ComponentParamEntry:
		return []any{e.Component, e.ParamKey, e.ParamValue}, nil
	case LinkEntry:
		return []any{e.Name}, nil
	case LinkEndEntry:
		return []any{e.Link, int64(e.EndIndex), e.Component, e.Port,
			e.LatencyPS}, nil
	case UncuttableLinkEntry:
		return []any{e.Link}, nil
	default:
		return nil, fmt.Errorf("unsupported entry type %T", entry)
	}
}

// CreateTable creates the table if it does not exist yet.
func (r *ClickHouseRecorder) CreateTable(tableName string, sampleEntry any) {
	createSQL, err := clickHouseSchema(tableName, sampleEntry)
	if err != nil {
		panic(err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	err = r.conn.Exec(context.Background(), createSQL)
	if err != nil {
		panic(fmt.Errorf("failed to create table %s: %w", tableName, err))
	}

	r.tables[tableName] = nil
}

// InsertData buffers one row.
func (r *ClickHouseRecorder) InsertData(tableName string, entry any) {
	row, err := clickHouseRow(entry)
	if err != nil {
		panic(err)
	}

	r.mu.Lock()

	if _, exists := r.tables[tableName]; !exists {
		r.mu.Unlock()
		panic(fmt.Sprintf("table %s does not exist", tableName))
	}

	r.tables[tableName] = append(r.tables[tableName], row)
	r.entryCount++

	full := r.entryCount >= r.batchSize
	r.mu.Unlock()

	if full {
		r.Flush()
	}
}

// ListTables returns the created tables, sorted.
func (r *ClickHouseRecorder) ListTables() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	tables := make([]string, 0, len(r.tables))
	for name := range r.tables {
		tables = append(tables, name)
	}

	slices.Sort(tables)

	return tables
}

// Flush sends the buffered rows with one batch per table.
func (r *ClickHouseRecorder) Flush() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.entryCount == 0 {
		return
	}

	ctx := context.Background()

	for tableName, rows := range r.tables {
		if len(rows) == 0 {
			continue
		}

		batch, err := r.conn.PrepareBatch(ctx, "INSERT INTO "+tableName)
		if err != nil {
			panic(fmt.Errorf("failed to prepare batch for %s: %w",
				tableName, err))
		}

		for _, row := range rows {
			if err := batch.Append(row...); err != nil {
				panic(fmt.Errorf("failed to append to batch: %w", err))
			}
		}

		if err := batch.Send(); err != nil {
			panic(fmt.Errorf("failed to send batch: %w", err))
		}

		r.tables[tableName] = rows[:0]
	}

	r.entryCount = 0
}

// Close flushes the remaining rows and closes the connection.
func (r *ClickHouseRecorder) Close() error {
	r.Flush()

	if err := r.conn.Close(); err != nil {
		return fmt.Errorf("failed to close ClickHouse connection: %w", err)
	}

	return nil
}
