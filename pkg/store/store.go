// Package store writes flattened graph exports to a SQLite database.
package store

import (
	"fmt"
	"os"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/l3aro/go-cpg/pkg/graph"
)

// WriteDB writes the exports of one or more translation units to a SQLite
// database file, replacing any existing file.
func WriteDB(path string, units []*graph.Export) error {
	_ = os.Remove(path) // ignore if doesn't exist

	conn, err := sqlite.OpenConn(path, sqlite.OpenCreate, sqlite.OpenReadWrite, sqlite.OpenWAL)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	defer func() { _ = conn.Close() }()

	for _, pragma := range []string{
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
		"PRAGMA journal_mode = WAL",
	} {
		if err := sqlitex.ExecuteTransient(conn, pragma, nil); err != nil {
			return err
		}
	}

	if err := createTables(conn); err != nil {
		return err
	}

	endFn, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err = insertUnits(conn, units); err != nil {
		endFn(&err)
		return err
	}

	endFn(&err)
	if err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	return createIndexes(conn)
}

func createTables(conn *sqlite.Conn) error {
	stmts := []string{
		`CREATE TABLE nodes (
			unit TEXT NOT NULL,
			id INTEGER NOT NULL,
			kind TEXT NOT NULL,
			name TEXT,
			code TEXT,
			file TEXT,
			start_line INTEGER,
			start_column INTEGER,
			end_line INTEGER,
			end_column INTEGER,
			type TEXT,
			type_origin TEXT,
			value TEXT,
			PRIMARY KEY (unit, id)
		)`,
		`CREATE TABLE edges (
			unit TEXT NOT NULL,
			source INTEGER NOT NULL,
			target INTEGER NOT NULL,
			kind TEXT NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if err := sqlitex.ExecuteTransient(conn, stmt, nil); err != nil {
			return fmt.Errorf("create tables: %w", err)
		}
	}
	return nil
}

// createIndexes runs after the bulk insert; deferred creation is cheaper.
func createIndexes(conn *sqlite.Conn) error {
	stmts := []string{
		`CREATE INDEX idx_nodes_kind ON nodes(kind)`,
		`CREATE INDEX idx_nodes_name ON nodes(name)`,
		`CREATE INDEX idx_edges_source ON edges(unit, source)`,
		`CREATE INDEX idx_edges_target ON edges(unit, target)`,
		`CREATE INDEX idx_edges_kind ON edges(kind)`,
	}
	for _, stmt := range stmts {
		if err := sqlitex.ExecuteTransient(conn, stmt, nil); err != nil {
			return fmt.Errorf("create indexes: %w", err)
		}
	}
	return nil
}

func insertUnits(conn *sqlite.Conn, units []*graph.Export) error {
	nodeStmt, err := conn.Prepare(`INSERT INTO nodes
		(unit, id, kind, name, code, file, start_line, start_column, end_line, end_column, type, type_origin, value)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare node insert: %w", err)
	}

	edgeStmt, err := conn.Prepare(`INSERT INTO edges (unit, source, target, kind) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare edge insert: %w", err)
	}

	for _, unit := range units {
		for _, n := range unit.Nodes {
			nodeStmt.BindText(1, unit.Unit)
			nodeStmt.BindInt64(2, n.ID)
			nodeStmt.BindText(3, n.Kind)
			nodeStmt.BindText(4, n.Name)
			nodeStmt.BindText(5, n.Code)
			nodeStmt.BindText(6, n.File)
			nodeStmt.BindInt64(7, int64(n.StartLine))
			nodeStmt.BindInt64(8, int64(n.StartCol))
			nodeStmt.BindInt64(9, int64(n.EndLine))
			nodeStmt.BindInt64(10, int64(n.EndCol))
			nodeStmt.BindText(11, n.Type)
			nodeStmt.BindText(12, n.TypeOrigin)
			nodeStmt.BindText(13, n.Value)
			if _, err := nodeStmt.Step(); err != nil {
				return fmt.Errorf("insert node %d: %w", n.ID, err)
			}
			if err := nodeStmt.Reset(); err != nil {
				return err
			}
		}

		for _, e := range unit.Edges {
			edgeStmt.BindText(1, unit.Unit)
			edgeStmt.BindInt64(2, e.Source)
			edgeStmt.BindInt64(3, e.Target)
			edgeStmt.BindText(4, e.Kind)
			if _, err := edgeStmt.Step(); err != nil {
				return fmt.Errorf("insert edge %d->%d: %w", e.Source, e.Target, err)
			}
			if err := edgeStmt.Reset(); err != nil {
				return err
			}
		}
	}

	return nil
}

// Stats summarizes a written database.
type Stats struct {
	Nodes int64
	Edges int64
}

// ReadStats counts rows in an existing database.
func ReadStats(path string) (*Stats, error) {
	conn, err := sqlite.OpenConn(path, sqlite.OpenReadOnly)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	defer func() { _ = conn.Close() }()

	stats := &Stats{}
	if err := sqlitex.ExecuteTransient(conn, `SELECT COUNT(*) FROM nodes`, &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			stats.Nodes = stmt.ColumnInt64(0)
			return nil
		},
	}); err != nil {
		return nil, err
	}
	if err := sqlitex.ExecuteTransient(conn, `SELECT COUNT(*) FROM edges`, &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			stats.Edges = stmt.ColumnInt64(0)
			return nil
		},
	}); err != nil {
		return nil, err
	}

	return stats, nil
}
