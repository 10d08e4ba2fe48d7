// Package export writes a finished graph.Graph out to a SQLite file,
// backing the CLI's --export-sqlite flag. Schema and open/ping style
// follow the health-monitor example's NewDB from the pumped-go
// retrieval pack.
package export

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/stanzalang/stanza/internal/graph"
)

const schema = `
CREATE TABLE IF NOT EXISTS nodes (
	id INTEGER PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS edges (
	id INTEGER PRIMARY KEY,
	source INTEGER NOT NULL REFERENCES nodes(id),
	sink INTEGER NOT NULL REFERENCES nodes(id)
);
CREATE INDEX IF NOT EXISTS idx_edges_source ON edges(source);
CREATE INDEX IF NOT EXISTS idx_edges_sink ON edges(sink);

CREATE TABLE IF NOT EXISTS node_attributes (
	node_id INTEGER NOT NULL REFERENCES nodes(id),
	name TEXT NOT NULL,
	value TEXT NOT NULL,
	PRIMARY KEY (node_id, name)
);

CREATE TABLE IF NOT EXISTS edge_attributes (
	edge_id INTEGER NOT NULL REFERENCES edges(id),
	name TEXT NOT NULL,
	value TEXT NOT NULL,
	PRIMARY KEY (edge_id, name)
);
`

// SQLite opens (creating if needed) a SQLite database at path and
// writes g into it, replacing any prior contents. The connection is
// closed before returning.
func SQLite(path string, g *graph.Graph) error {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("opening export database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("pinging export database: %w", err)
	}
	if err := writeGraph(db, g); err != nil {
		return fmt.Errorf("writing graph: %w", err)
	}
	return nil
}

func writeGraph(db *sql.DB, g *graph.Graph) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"node_attributes", "edge_attributes", "edges", "nodes"} {
		if _, err := tx.Exec(fmt.Sprintf("DELETE FROM %s", table)); err != nil {
			return fmt.Errorf("clearing table %s: %w", table, err)
		}
	}

	for _, node := range g.Nodes() {
		if _, err := tx.Exec(`INSERT INTO nodes (id) VALUES (?)`, int(node)); err != nil {
			return fmt.Errorf("inserting node %d: %w", node, err)
		}
		for name, value := range g.NodeAttributes(node) {
			encoded, err := encodeValue(value)
			if err != nil {
				return fmt.Errorf("encoding attribute %s of node %d: %w", name, node, err)
			}
			if _, err := tx.Exec(
				`INSERT INTO node_attributes (node_id, name, value) VALUES (?, ?, ?)`,
				int(node), string(name), encoded,
			); err != nil {
				return fmt.Errorf("inserting node attribute %s: %w", name, err)
			}
		}
	}

	for _, edge := range g.Edges() {
		if _, err := tx.Exec(
			`INSERT INTO edges (id, source, sink) VALUES (?, ?, ?)`,
			int(edge.ID), int(edge.Source), int(edge.Sink),
		); err != nil {
			return fmt.Errorf("inserting edge %d: %w", edge.ID, err)
		}
		for name, value := range g.EdgeAttributes(edge.ID) {
			encoded, err := encodeValue(value)
			if err != nil {
				return fmt.Errorf("encoding attribute %s of edge %d: %w", name, edge.ID, err)
			}
			if _, err := tx.Exec(
				`INSERT INTO edge_attributes (edge_id, name, value) VALUES (?, ?, ?)`,
				int(edge.ID), string(name), encoded,
			); err != nil {
				return fmt.Errorf("inserting edge attribute %s: %w", name, err)
			}
		}
	}

	return tx.Commit()
}

// encodeValue renders a graph.Value as JSON text. Node and syntax-node
// values encode as their String() form since they have no meaning
// outside the run that produced them.
func encodeValue(v graph.Value) (string, error) {
	switch v.Kind() {
	case graph.KindNull:
		return "null", nil
	case graph.KindBool:
		b, _ := v.AsBool()
		return marshal(b)
	case graph.KindInteger:
		i, _ := v.AsInteger()
		return marshal(i)
	case graph.KindString:
		s, _ := v.AsString()
		return marshal(s)
	case graph.KindList:
		items, _ := v.AsList()
		rendered := make([]string, len(items))
		for i, item := range items {
			rendered[i] = item.String()
		}
		return marshal(rendered)
	default:
		return marshal(v.String())
	}
}

func marshal(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
