// Package store persists generated apps, saved apps, analytics and shared
// code in a local SQLite database.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"volt/app"

	_ "modernc.org/sqlite"
)

var (
	db     *sql.DB
	dbOnce sync.Once
)

// initDB initializes the SQLite database
func initDB() error {
	var initErr error
	dbOnce.Do(func() {
		dir := os.ExpandEnv("$HOME/.volt")
		dbPath := filepath.Join(dir, "volt.db")
		os.MkdirAll(dir, 0700)

		var err error
		db, err = sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=10000")
		if err != nil {
			initErr = fmt.Errorf("failed to open database: %w", err)
			return
		}

		// SQLite works best with limited connections
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)

		_, err = db.Exec(`
			CREATE TABLE IF NOT EXISTS generated_apps (
				id TEXT PRIMARY KEY,
				model TEXT NOT NULL,
				prompt TEXT NOT NULL,
				code TEXT NOT NULL,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			);

			CREATE TABLE IF NOT EXISTS saved_apps (
				id TEXT PRIMARY KEY,
				title TEXT NOT NULL,
				description TEXT,
				app_id TEXT NOT NULL,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				FOREIGN KEY (app_id) REFERENCES generated_apps(id)
			);

			CREATE TABLE IF NOT EXISTS analytics (
				app_id TEXT PRIMARY KEY,
				model_name TEXT NOT NULL,
				provider TEXT NOT NULL,
				prompt_tokens INTEGER NOT NULL,
				response_tokens INTEGER NOT NULL,
				total_tokens INTEGER NOT NULL,
				max_tokens INTEGER NOT NULL,
				utilization_percentage TEXT NOT NULL,
				FOREIGN KEY (app_id) REFERENCES generated_apps(id)
			);

			CREATE TABLE IF NOT EXISTS shared_codes (
				id TEXT PRIMARY KEY,
				app_id TEXT,
				content TEXT NOT NULL,
				is_encrypted INTEGER NOT NULL DEFAULT 0,
				expires_at TIMESTAMP,
				allowed_views INTEGER,
				remaining_views INTEGER,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			);

			CREATE INDEX IF NOT EXISTS idx_saved_apps_created ON saved_apps(created_at);
		`)
		if err != nil {
			initErr = fmt.Errorf("failed to create tables: %w", err)
			return
		}

		app.Log("store", "Initialized volt.db")
	})
	return initErr
}

// getDB returns the database handle, initializing if needed
func getDB() (*sql.DB, error) {
	if err := initDB(); err != nil {
		return nil, err
	}
	return db, nil
}

// GeneratedApp is one persisted code generation result.
type GeneratedApp struct {
	ID        string    `json:"id"`
	Model     string    `json:"model"`
	Prompt    string    `json:"prompt"`
	Code      string    `json:"code"`
	CreatedAt time.Time `json:"createdAt"`
}

// SavedApp is a user bookmark of a GeneratedApp.
type SavedApp struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	AppID       string    `json:"appId"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Analytics is the token usage record for one GeneratedApp.
type Analytics struct {
	AppID                 string `json:"appId"`
	ModelName             string `json:"modelName"`
	Provider              string `json:"provider"`
	PromptTokens          int    `json:"promptTokens"`
	ResponseTokens        int    `json:"responseTokens"`
	TotalTokens           int    `json:"totalTokens"`
	MaxTokens             int    `json:"maxTokens"`
	UtilizationPercentage string `json:"utilizationPercentage"`
}

// SharedCode is a persisted, optionally encrypted share snapshot.
type SharedCode struct {
	ID             string     `json:"id"`
	AppID          string     `json:"appId,omitempty"`
	Content        string     `json:"content"`
	IsEncrypted    bool       `json:"isEncrypted"`
	ExpiresAt      *time.Time `json:"expiresAt"`
	AllowedViews   *int       `json:"allowedViews"`
	RemainingViews *int       `json:"remainingViews"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// CreateGeneratedApp stores a new generation result and returns it.
func CreateGeneratedApp(model, prompt, code string) (*GeneratedApp, error) {
	db, err := getDB()
	if err != nil {
		return nil, err
	}

	a := &GeneratedApp{
		ID:        uuid.NewString(),
		Model:     model,
		Prompt:    prompt,
		Code:      code,
		CreatedAt: time.Now(),
	}

	_, err = db.Exec(`
		INSERT INTO generated_apps (id, model, prompt, code, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, a.ID, a.Model, a.Prompt, a.Code, a.CreatedAt)
	if err != nil {
		return nil, err
	}

	return a, nil
}

// GetGeneratedApp returns a generated app by id, or nil when absent.
func GetGeneratedApp(id string) (*GeneratedApp, error) {
	db, err := getDB()
	if err != nil {
		return nil, err
	}

	var a GeneratedApp
	err = db.QueryRow(`
		SELECT id, model, prompt, code, created_at
		FROM generated_apps WHERE id = ?
	`, id).Scan(&a.ID, &a.Model, &a.Prompt, &a.Code, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateSavedApp bookmarks a generated app.
func CreateSavedApp(title, description, appID string) (*SavedApp, error) {
	db, err := getDB()
	if err != nil {
		return nil, err
	}

	s := &SavedApp{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		AppID:       appID,
		CreatedAt:   time.Now(),
	}

	_, err = db.Exec(`
		INSERT INTO saved_apps (id, title, description, app_id, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, s.ID, s.Title, s.Description, s.AppID, s.CreatedAt)
	if err != nil {
		return nil, err
	}

	return s, nil
}

// SavedAppView is a saved app joined with its generation and analytics.
type SavedAppView struct {
	ID          string     `json:"id"`
	SavedID     string     `json:"savedId"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Code        string     `json:"code"`
	Model       string     `json:"model"`
	Prompt      string     `json:"prompt"`
	CreatedAt   time.Time  `json:"createdAt"`
	Analytics   *Analytics `json:"analytics,omitempty"`
}

// ListSavedApps returns all bookmarks, newest first, joined with their
// generated app and analytics.
func ListSavedApps() ([]*SavedAppView, error) {
	db, err := getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(`
		SELECT s.id, s.title, s.description, s.created_at,
		       g.id, g.code, g.model, g.prompt,
		       a.model_name, a.provider, a.prompt_tokens, a.response_tokens,
		       a.total_tokens, a.max_tokens, a.utilization_percentage
		FROM saved_apps s
		JOIN generated_apps g ON g.id = s.app_id
		LEFT JOIN analytics a ON a.app_id = g.id
		ORDER BY s.created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*SavedAppView
	for rows.Next() {
		var v SavedAppView
		var desc sql.NullString
		var modelName, provider, utilization sql.NullString
		var promptTokens, responseTokens, totalTokens, maxTokens sql.NullInt64

		err := rows.Scan(&v.SavedID, &v.Title, &desc, &v.CreatedAt,
			&v.ID, &v.Code, &v.Model, &v.Prompt,
			&modelName, &provider, &promptTokens, &responseTokens,
			&totalTokens, &maxTokens, &utilization)
		if err != nil {
			return nil, err
		}

		v.Description = desc.String
		if modelName.Valid {
			v.Analytics = &Analytics{
				AppID:                 v.ID,
				ModelName:             modelName.String,
				Provider:              provider.String,
				PromptTokens:          int(promptTokens.Int64),
				ResponseTokens:        int(responseTokens.Int64),
				TotalTokens:           int(totalTokens.Int64),
				MaxTokens:             int(maxTokens.Int64),
				UtilizationPercentage: utilization.String,
			}
		}
		result = append(result, &v)
	}

	return result, rows.Err()
}

// DeleteSavedApp removes a bookmark and cascades to the generated app and
// its analytics. Deletion order respects the foreign key dependencies:
// analytics, then the saved app, then the generated app.
func DeleteSavedApp(id string) error {
	db, err := getDB()
	if err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var appID string
	err = tx.QueryRow("SELECT app_id FROM saved_apps WHERE id = ?", id).Scan(&appID)
	if err == sql.ErrNoRows {
		return fmt.Errorf("saved app not found")
	}
	if err != nil {
		return err
	}

	if _, err := tx.Exec("DELETE FROM analytics WHERE app_id = ?", appID); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM saved_apps WHERE id = ?", id); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM generated_apps WHERE id = ?", appID); err != nil {
		return err
	}

	return tx.Commit()
}

// UpsertAnalytics creates or replaces the analytics row for an app.
func UpsertAnalytics(a *Analytics) error {
	db, err := getDB()
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		INSERT INTO analytics (app_id, model_name, provider, prompt_tokens,
			response_tokens, total_tokens, max_tokens, utilization_percentage)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(app_id) DO UPDATE SET
			model_name = excluded.model_name,
			provider = excluded.provider,
			prompt_tokens = excluded.prompt_tokens,
			response_tokens = excluded.response_tokens,
			total_tokens = excluded.total_tokens,
			max_tokens = excluded.max_tokens,
			utilization_percentage = excluded.utilization_percentage
	`, a.AppID, a.ModelName, a.Provider, a.PromptTokens,
		a.ResponseTokens, a.TotalTokens, a.MaxTokens, a.UtilizationPercentage)

	return err
}

// GetAnalytics returns the analytics row for an app, or nil when absent.
func GetAnalytics(appID string) (*Analytics, error) {
	db, err := getDB()
	if err != nil {
		return nil, err
	}

	var a Analytics
	err = db.QueryRow(`
		SELECT app_id, model_name, provider, prompt_tokens, response_tokens,
			total_tokens, max_tokens, utilization_percentage
		FROM analytics WHERE app_id = ?
	`, appID).Scan(&a.AppID, &a.ModelName, &a.Provider, &a.PromptTokens,
		&a.ResponseTokens, &a.TotalTokens, &a.MaxTokens, &a.UtilizationPercentage)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateSharedCode stores a share snapshot.
func CreateSharedCode(s *SharedCode) error {
	db, err := getDB()
	if err != nil {
		return err
	}

	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}

	var appID interface{}
	if s.AppID != "" {
		appID = s.AppID
	}

	_, err = db.Exec(`
		INSERT INTO shared_codes (id, app_id, content, is_encrypted, expires_at,
			allowed_views, remaining_views, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, s.ID, appID, s.Content, s.IsEncrypted, s.ExpiresAt,
		s.AllowedViews, s.RemainingViews, s.CreatedAt)

	return err
}

// GetSharedCode returns a share by id, or nil when absent.
func GetSharedCode(id string) (*SharedCode, error) {
	db, err := getDB()
	if err != nil {
		return nil, err
	}

	var s SharedCode
	var appID sql.NullString
	var expiresAt sql.NullTime
	var allowedViews, remainingViews sql.NullInt64

	err = db.QueryRow(`
		SELECT id, app_id, content, is_encrypted, expires_at, allowed_views,
			remaining_views, created_at
		FROM shared_codes WHERE id = ?
	`, id).Scan(&s.ID, &appID, &s.Content, &s.IsEncrypted, &expiresAt,
		&allowedViews, &remainingViews, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	s.AppID = appID.String
	if expiresAt.Valid {
		t := expiresAt.Time
		s.ExpiresAt = &t
	}
	if allowedViews.Valid {
		n := int(allowedViews.Int64)
		s.AllowedViews = &n
	}
	if remainingViews.Valid {
		n := int(remainingViews.Int64)
		s.RemainingViews = &n
	}
	return &s, nil
}

// SetShareRemainingViews updates the remaining view count for a share.
func SetShareRemainingViews(id string, remaining int) error {
	db, err := getDB()
	if err != nil {
		return err
	}
	_, err = db.Exec("UPDATE shared_codes SET remaining_views = ? WHERE id = ?", remaining, id)
	return err
}
