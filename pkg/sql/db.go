package lsql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.10.0"
	"go.opentelemetry.io/otel/trace"
)

const netPeerAddressKey = attribute.Key("net.peer.address")

var (
	ErrConstraintViolation = errors.New("constraint violation")
)

func NewInstance(cfg *Config) (*Instance, error) {
	db, err := sqlx.Connect(cfg.DriverName(), cfg.FullAddress())
	if err != nil {
		return nil, err
	}

	db.SetConnMaxLifetime(cfg.MaxLifetime)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetMaxOpenConns(cfg.MaxOpenConns)

	tracer := otel.Tracer("lsql")

	return &Instance{
		cfg:    cfg,
		db:     db,
		tracer: tracer,
	}, nil
}

type Instance struct {
	cfg    *Config
	db     *sqlx.DB
	tracer trace.Tracer
}

func (db *Instance) GetDatabaseEngine() string {
	return strings.ToLower(db.cfg.Engine)
}

func (db *Instance) Ping(ctx context.Context) error {
	return db.db.PingContext(ctx)
}

func (db *Instance) Close() error {
	return db.db.Close()
}

func startSpan(ctx context.Context, db *Instance, spanName string, query string) (context.Context, trace.Span) {
	return db.tracer.Start(ctx, spanName,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			semconv.DBStatementKey.String(query),
			semconv.DBSystemKey.String(db.GetDatabaseEngine()),
			netPeerAddressKey.String(db.cfg.Address),
			semconv.PeerServiceKey.String(fmt.Sprintf("%s[%s(%s)]", db.cfg.DatabaseName, db.GetDatabaseEngine(), db.cfg.Address)),
		))
}

func (db *Instance) QueryRowContext(ctx context.Context, query string, args ...interface{}) *Row {
	ctx, span := startSpan(ctx, db, "QueryRowContext", query)
	defer span.End()

	if len(args) > 0 {
		var err error
		query, args, err = sqlx.In(query, args...)
		if err != nil {
			return &Row{err: err}
		}
	}

	finalQuery := db.db.Rebind(query)

	if isTransaction(ctx) {
		return &Row{err: fmt.Errorf("tried to use database with a transaction context")}
	}
	return &Row{row: db.db.QueryRowxContext(ctx, finalQuery, args...)}
}

func (db *Instance) QueryContext(ctx context.Context, query string, args ...interface{}) (*sqlx.Rows, error) {
	ctx, span := startSpan(ctx, db, "QueryContext", query)
	defer span.End()

	if len(args) > 0 {
		var err error
		query, args, err = sqlx.In(query, args...)
		if err != nil {
			return nil, err
		}
	}

	finalQuery := db.db.Rebind(query)

	if isTransaction(ctx) {
		return nil, fmt.Errorf("tried to use database with a transaction context")
	}
	return db.db.QueryxContext(ctx, finalQuery, args...)
}

func (db *Instance) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	ctx, span := startSpan(ctx, db, "ExecContext", query)
	defer span.End()

	if len(args) > 0 {
		var err error
		query, args, err = sqlx.In(query, args...)
		if err != nil {
			return nil, err
		}
	}

	finalQuery := db.db.Rebind(query)

	if isTransaction(ctx) {
		return nil, fmt.Errorf("tried to use database with a transaction context")
	}
	res, err := db.db.ExecContext(ctx, finalQuery, args...)
	if err != nil {
		log.Debugf("exec failed: %s", err)
	}
	return res, err
}

// LimitClause renders pagination SQL valid on every supported engine.
func (db *Instance) LimitClause(pageSize int64, offset int64) (string, error) {
	switch db.GetDatabaseEngine() {
	case EngineSqlite, EngineSqlite3, EnginePostgres:
		return fmt.Sprintf(" LIMIT %d OFFSET %d", pageSize, offset), nil
	default:
		return "", ErrDatabaseEngineNotSupported
	}
}
