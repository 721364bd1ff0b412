package experience

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Store provides SQLite-backed persistence for network snapshots. The
// network itself stays in memory; Save/Load hand a full snapshot off to disk
// and back.
type Store struct {
	db     *sql.DB
	dbPath string
	mu     sync.Mutex
}

// DefaultDBPath returns the path to the default network database.
func DefaultDBPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, _ := os.UserHomeDir()
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "auriga", "network.db")
}

// OpenStore opens the network database at the given path, creating parent
// directories as needed. WAL mode is enabled for concurrent reads.
func OpenStore(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	s := &Store{db: conn, dbPath: dbPath}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// Path returns the path to the database file.
func (s *Store) Path() string {
	return s.dbPath
}

const migrationV1Network = `
CREATE TABLE IF NOT EXISTS nodes (
	id TEXT PRIMARY KEY,
	prompt TEXT NOT NULL,
	response TEXT NOT NULL,
	effectiveness INTEGER NOT NULL,
	created_at DATETIME NOT NULL,
	provider TEXT NOT NULL DEFAULT '',
	model TEXT NOT NULL DEFAULT '',
	context TEXT NOT NULL DEFAULT '',
	tags TEXT NOT NULL DEFAULT '[]',
	position INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS connections (
	source_id TEXT NOT NULL,
	target_id TEXT NOT NULL,
	strength REAL NOT NULL,
	PRIMARY KEY (source_id, target_id)
);
CREATE TABLE IF NOT EXISTS profiles (
	id TEXT PRIMARY KEY,
	preferences TEXT NOT NULL DEFAULT '{}',
	history TEXT NOT NULL DEFAULT '[]',
	predicted_needs TEXT NOT NULL DEFAULT '[]'
);
CREATE INDEX IF NOT EXISTS idx_nodes_position ON nodes(position);
`

// migrate applies pending schema migrations.
func (s *Store) migrate() error {
	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS network_schema_version (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return err
	}

	var current int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM network_schema_version")
	if err := row.Scan(&current); err != nil {
		return err
	}

	migrations := []struct {
		version int
		sql     string
	}{
		{1, migrationV1Network},
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(m.sql); err != nil {
			tx.Rollback()
			return err
		}
		if _, err := tx.Exec("INSERT INTO network_schema_version (version) VALUES (?)", m.version); err != nil {
			tx.Rollback()
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
	}
	return nil
}

// Save replaces the stored snapshot with the given one, atomically.
func (s *Store) Save(snap *Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"connections", "nodes", "profiles"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for i, node := range snap.Nodes {
		tags, err := json.Marshal(node.Metadata.Tags)
		if err != nil {
			return fmt.Errorf("marshal tags: %w", err)
		}
		if _, err := tx.Exec(`
			INSERT INTO nodes (id, prompt, response, effectiveness, created_at, provider, model, context, tags, position)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			node.ID, node.Prompt, node.Response, node.Effectiveness,
			node.Metadata.Timestamp.UTC().Format(time.RFC3339Nano),
			node.Metadata.Provider, node.Metadata.Model, node.Metadata.Context,
			string(tags), i,
		); err != nil {
			return fmt.Errorf("insert node %s: %w", node.ID, err)
		}
		for _, conn := range node.Connections {
			if _, err := tx.Exec(`
				INSERT INTO connections (source_id, target_id, strength) VALUES (?, ?, ?)`,
				node.ID, conn.NodeID, conn.Strength,
			); err != nil {
				return fmt.Errorf("insert connection %s->%s: %w", node.ID, conn.NodeID, err)
			}
		}
	}

	for _, profile := range snap.Profiles {
		prefs, err := json.Marshal(profile.Preferences)
		if err != nil {
			return fmt.Errorf("marshal preferences: %w", err)
		}
		history, err := json.Marshal(profile.History)
		if err != nil {
			return fmt.Errorf("marshal history: %w", err)
		}
		needs, err := json.Marshal(profile.PredictedNeeds)
		if err != nil {
			return fmt.Errorf("marshal needs: %w", err)
		}
		if _, err := tx.Exec(`
			INSERT INTO profiles (id, preferences, history, predicted_needs) VALUES (?, ?, ?, ?)`,
			profile.ID, string(prefs), string(history), string(needs),
		); err != nil {
			return fmt.Errorf("insert profile %s: %w", profile.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Load reads the stored snapshot. An empty database yields an empty snapshot.
func (s *Store) Load() (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := &Snapshot{}

	rows, err := s.db.Query(`
		SELECT id, prompt, response, effectiveness, created_at, provider, model, context, tags
		FROM nodes ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query nodes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var node Node
		var createdAt, tags string
		if err := rows.Scan(&node.ID, &node.Prompt, &node.Response, &node.Effectiveness,
			&createdAt, &node.Metadata.Provider, &node.Metadata.Model,
			&node.Metadata.Context, &tags); err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			node.Metadata.Timestamp = ts
		}
		if err := json.Unmarshal([]byte(tags), &node.Metadata.Tags); err != nil {
			return nil, fmt.Errorf("unmarshal tags for %s: %w", node.ID, err)
		}
		snap.Nodes = append(snap.Nodes, &node)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate nodes: %w", err)
	}

	byID := make(map[string]*Node, len(snap.Nodes))
	for _, node := range snap.Nodes {
		byID[node.ID] = node
	}

	connRows, err := s.db.Query("SELECT source_id, target_id, strength FROM connections")
	if err != nil {
		return nil, fmt.Errorf("query connections: %w", err)
	}
	defer connRows.Close()

	for connRows.Next() {
		var source, target string
		var strength float64
		if err := connRows.Scan(&source, &target, &strength); err != nil {
			return nil, fmt.Errorf("scan connection: %w", err)
		}
		if node, ok := byID[source]; ok {
			node.Connections = append(node.Connections, Connection{NodeID: target, Strength: strength})
		}
	}
	if err := connRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate connections: %w", err)
	}

	profileRows, err := s.db.Query("SELECT id, preferences, history, predicted_needs FROM profiles ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}
	defer profileRows.Close()

	for profileRows.Next() {
		var profile Profile
		var prefs, history, needs string
		if err := profileRows.Scan(&profile.ID, &prefs, &history, &needs); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		if err := json.Unmarshal([]byte(prefs), &profile.Preferences); err != nil {
			return nil, fmt.Errorf("unmarshal preferences for %s: %w", profile.ID, err)
		}
		if err := json.Unmarshal([]byte(history), &profile.History); err != nil {
			return nil, fmt.Errorf("unmarshal history for %s: %w", profile.ID, err)
		}
		if err := json.Unmarshal([]byte(needs), &profile.PredictedNeeds); err != nil {
			return nil, fmt.Errorf("unmarshal needs for %s: %w", profile.ID, err)
		}
		snap.Profiles = append(snap.Profiles, &profile)
	}
	if err := profileRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}

	return snap, nil
}
