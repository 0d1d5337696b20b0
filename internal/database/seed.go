package database

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"themepress/internal/models"
)

// Seed populates the database with initial development data: the
// built-in base palette as a color scheme, and a sample enabled theme
// with one SCSS field so the pipeline has something to compile.
func Seed(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM themes").Scan(&count); err != nil {
		return fmt.Errorf("seed check themes: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	var schemeID int64
	err := db.QueryRow(`
		INSERT INTO color_schemes (name) VALUES ($1) RETURNING id
	`, "Base").Scan(&schemeID)
	if err != nil {
		return fmt.Errorf("seed insert color scheme: %w", err)
	}

	for _, name := range models.BaseColorNames() {
		_, err = db.Exec(`
			INSERT INTO color_scheme_colors (color_scheme_id, name, hex)
			VALUES ($1, $2, $3)
		`, schemeID, name, models.BaseColors[name])
		if err != nil {
			return fmt.Errorf("seed insert color: %w", err)
		}
	}

	key := uuid.New()
	var themeID int64
	err = db.QueryRow(`
		INSERT INTO themes (key, name, color_scheme_id, enabled, user_selectable)
		VALUES ($1, $2, $3, TRUE, TRUE)
		RETURNING id
	`, key, "Sample", schemeID).Scan(&themeID)
	if err != nil {
		return fmt.Errorf("seed insert theme: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO theme_fields (theme_id, target, name, value)
		VALUES ($1, $2, $3, $4)
	`, themeID, models.TargetCommon, models.FieldSCSS, ".sample { color: $primary; }")
	if err != nil {
		return fmt.Errorf("seed insert theme field: %w", err)
	}

	slog.Info("database seeded with sample theme",
		"theme_key", key.String(),
		"color_scheme_id", schemeID,
	)

	return nil
}
