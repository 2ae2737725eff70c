package main

import (
	"database/sql"
	"fmt"
	"log"
	"math"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite database connection
type DB struct {
	conn *sql.DB
}

// PlayerRow represents a player record in the database
type PlayerRow struct {
	ID        int64
	Username  string
	PassHash  string
	CreatedAt time.Time
}

// StatsRow represents lifetime account stats
type StatsRow struct {
	PlayerID     int64
	Runs         int
	BestWave     int
	WavesCleared int
	Kills        int
	Playtime     float64 // seconds
	Credits      int     // account credits earned over all runs
	XP           int
	Level        int
}

// RunPlayerRow is one player's line in a finished run
type RunPlayerRow struct {
	RunID         int64
	PlayerID      int64
	Wave          int
	Kills         int
	Level         int
	DamageTaken   float64
	FlawlessWaves int
	Purchases     int
	Credits       int
}

// OpenDB opens (or creates) the SQLite database
func OpenDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	// WAL lets analytics writes run beside game reads
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable wal: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates tables if they don't exist
func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS players (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		pass_hash TEXT NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS stats (
		player_id INTEGER PRIMARY KEY REFERENCES players(id),
		runs INTEGER NOT NULL DEFAULT 0,
		best_wave INTEGER NOT NULL DEFAULT 0,
		waves_cleared INTEGER NOT NULL DEFAULT 0,
		kills INTEGER NOT NULL DEFAULT 0,
		playtime REAL NOT NULL DEFAULT 0,
		credits INTEGER NOT NULL DEFAULT 0,
		xp INTEGER NOT NULL DEFAULT 0,
		level INTEGER NOT NULL DEFAULT 1
	);

	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_uuid TEXT NOT NULL,
		session_id TEXT NOT NULL DEFAULT '',
		wave INTEGER NOT NULL DEFAULT 0,
		duration REAL NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS run_players (
		run_id INTEGER NOT NULL REFERENCES runs(id),
		player_id INTEGER NOT NULL REFERENCES players(id),
		kills INTEGER NOT NULL DEFAULT 0,
		level INTEGER NOT NULL DEFAULT 1,
		damage_taken REAL NOT NULL DEFAULT 0,
		flawless_waves INTEGER NOT NULL DEFAULT 0,
		purchases INTEGER NOT NULL DEFAULT 0,
		credits INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (run_id, player_id)
	);

	CREATE TABLE IF NOT EXISTS achievements (
		player_id INTEGER NOT NULL REFERENCES players(id),
		achievement_id TEXT NOT NULL,
		unlocked_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (player_id, achievement_id)
	);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS analytics_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		event_type TEXT NOT NULL,
		player_id INTEGER,
		session_id TEXT,
		data TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_run_players_player ON run_players(player_id);
	CREATE INDEX IF NOT EXISTS idx_analytics_type_time ON analytics_events(event_type, created_at);
	`
	_, err := db.conn.Exec(schema)
	if err != nil {
		log.Printf("DB migration error: %v", err)
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// CreatePlayer creates a new player account (returns player ID)
func (db *DB) CreatePlayer(username, passHash string) (int64, error) {
	res, err := db.conn.Exec(
		"INSERT INTO players (username, pass_hash) VALUES (?, ?)",
		username, passHash,
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	_, err = db.conn.Exec("INSERT INTO stats (player_id) VALUES (?)", id)
	return id, err
}

// GetPlayerByUsername returns a player by username, or nil if none
func (db *DB) GetPlayerByUsername(username string) (*PlayerRow, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, pass_hash, created_at FROM players WHERE username = ?",
		username,
	)
	p := &PlayerRow{}
	err := row.Scan(&p.ID, &p.Username, &p.PassHash, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

// GetPlayerByID returns a player by ID, or nil if none
func (db *DB) GetPlayerByID(id int64) (*PlayerRow, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, pass_hash, created_at FROM players WHERE id = ?",
		id,
	)
	p := &PlayerRow{}
	err := row.Scan(&p.ID, &p.Username, &p.PassHash, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

// UsernameExists checks if a username is taken
func (db *DB) UsernameExists(username string) (bool, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM players WHERE username = ?", username).Scan(&count)
	return count > 0, err
}

// GetStats returns account stats, or nil if the player has none
func (db *DB) GetStats(playerID int64) (*StatsRow, error) {
	row := db.conn.QueryRow(
		`SELECT player_id, runs, best_wave, waves_cleared, kills, playtime, credits, xp, level
		 FROM stats WHERE player_id = ?`,
		playerID,
	)
	s := &StatsRow{}
	err := row.Scan(&s.PlayerID, &s.Runs, &s.BestWave, &s.WavesCleared, &s.Kills, &s.Playtime, &s.Credits, &s.XP, &s.Level)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return s, err
}

// XPForLevel returns the total account XP required to reach a level.
// Formula: sum of 100 * i^1.5 for i in 1..level-1
func XPForLevel(level int) int {
	if level <= 1 {
		return 0
	}
	total := 0.0
	for i := 1; i < level; i++ {
		total += 100.0 * math.Pow(float64(i), 1.5)
	}
	return int(total)
}

// CalculateLevel returns the account level for a total XP amount
func CalculateLevel(totalXP int) int {
	level := 1
	for {
		if totalXP < XPForLevel(level+1) {
			return level
		}
		level++
		if level > 100 {
			return 100
		}
	}
}

// RunXP is the account XP a run is worth: the credits it earned plus ten
// per wave reached
func RunXP(wave int, s PlayerMatchStats) int {
	return s.Credits + wave*10
}

// UpdateStatsAfterRun folds a finished run into the account stats.
// Returns the new account level.
func (db *DB) UpdateStatsAfterRun(playerID int64, wave int, duration float64, s PlayerMatchStats) (int, error) {
	cleared := wave - 1
	if cleared < 0 {
		cleared = 0
	}
	_, err := db.conn.Exec(`
		UPDATE stats SET
			runs = runs + 1,
			best_wave = MAX(best_wave, ?),
			waves_cleared = waves_cleared + ?,
			kills = kills + ?,
			playtime = playtime + ?,
			credits = credits + ?,
			xp = xp + ?
		WHERE player_id = ?`,
		wave, cleared, s.Kills, duration, s.Credits, RunXP(wave, s), playerID,
	)
	if err != nil {
		return 0, fmt.Errorf("update stats %d: %w", playerID, err)
	}

	var totalXP int
	if err := db.conn.QueryRow("SELECT xp FROM stats WHERE player_id = ?", playerID).Scan(&totalXP); err != nil {
		return 0, fmt.Errorf("read xp %d: %w", playerID, err)
	}
	level := CalculateLevel(totalXP)
	_, err = db.conn.Exec("UPDATE stats SET level = ? WHERE player_id = ?", level, playerID)
	return level, err
}

// RecordRun records a finished run and returns its row ID
func (db *DB) RecordRun(runUUID, sessionID string, wave int, duration float64) (int64, error) {
	res, err := db.conn.Exec(
		"INSERT INTO runs (run_uuid, session_id, wave, duration) VALUES (?, ?, ?, ?)",
		runUUID, sessionID, wave, duration,
	)
	if err != nil {
		return 0, fmt.Errorf("record run %s: %w", runUUID, err)
	}
	return res.LastInsertId()
}

// RecordRunPlayer records one account's summary for a run
func (db *DB) RecordRunPlayer(runID, playerID int64, s PlayerMatchStats) error {
	_, err := db.conn.Exec(
		`INSERT INTO run_players (run_id, player_id, kills, level, damage_taken, flawless_waves, purchases, credits)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, playerID, s.Kills, s.Level, s.DamageTaken, s.FlawlessWaves, s.Purchases, s.Credits,
	)
	return err
}

// GetRunHistory returns a player's most recent runs
func (db *DB) GetRunHistory(playerID int64, limit int) ([]RunPlayerRow, error) {
	rows, err := db.conn.Query(`
		SELECT rp.run_id, rp.player_id, r.wave, rp.kills, rp.level, rp.damage_taken,
			rp.flawless_waves, rp.purchases, rp.credits
		FROM run_players rp
		JOIN runs r ON r.id = rp.run_id
		WHERE rp.player_id = ?
		ORDER BY r.id DESC
		LIMIT ?`,
		playerID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []RunPlayerRow
	for rows.Next() {
		var r RunPlayerRow
		if err := rows.Scan(&r.RunID, &r.PlayerID, &r.Wave, &r.Kills, &r.Level, &r.DamageTaken,
			&r.FlawlessWaves, &r.Purchases, &r.Credits); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// LeaderboardEntry represents one row in the leaderboard
type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	Username string `json:"username"`
	Level    int    `json:"level"`
	BestWave int    `json:"best_wave"`
	Kills    int    `json:"kills"`
	Runs     int    `json:"runs"`
	Credits  int    `json:"credits"`
}

// GetLeaderboard returns top players sorted by the given field
func (db *DB) GetLeaderboard(orderBy string, limit int) ([]LeaderboardEntry, error) {
	validCols := map[string]string{
		"wave": "s.best_wave", "kills": "s.kills", "level": "s.xp",
		"runs": "s.runs", "credits": "s.credits",
	}
	col, ok := validCols[orderBy]
	if !ok {
		col = "s.best_wave"
	}

	query := `SELECT p.username, s.level, s.best_wave, s.kills, s.runs, s.credits
		FROM stats s JOIN players p ON p.id = s.player_id
		WHERE s.runs > 0
		ORDER BY ` + col + ` DESC, s.kills DESC, p.username LIMIT ?`

	rows, err := db.conn.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []LeaderboardEntry
	rank := 1
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.Username, &e.Level, &e.BestWave, &e.Kills, &e.Runs, &e.Credits); err != nil {
			return nil, err
		}
		e.Rank = rank
		rank++
		result = append(result, e)
	}
	return result, rows.Err()
}

// GetAchievements returns the achievement IDs a player has unlocked
func (db *DB) GetAchievements(playerID int64) ([]string, error) {
	rows, err := db.conn.Query(
		"SELECT achievement_id FROM achievements WHERE player_id = ? ORDER BY unlocked_at, achievement_id",
		playerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UnlockAchievement records an achievement. Returns true if it was new.
func (db *DB) UnlockAchievement(playerID int64, achievementID string) (bool, error) {
	res, err := db.conn.Exec(
		"INSERT OR IGNORE INTO achievements (player_id, achievement_id) VALUES (?, ?)",
		playerID, achievementID,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// GetSetting returns a server setting, or "" if unset
func (db *DB) GetSetting(key string) string {
	var v string
	err := db.conn.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&v)
	if err != nil && err != sql.ErrNoRows {
		log.Printf("get setting %s: %v", key, err)
	}
	return v
}

// SetSetting stores a server setting
func (db *DB) SetSetting(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	return err
}
