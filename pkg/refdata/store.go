package refdata

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"
)

// Store persists the four corpora in SQLite and serves them as a Source.
type Store struct {
	db *sql.DB
}

const storeDDL = `
CREATE TABLE IF NOT EXISTS allergens (
	name             TEXT PRIMARY KEY,
	category         TEXT NOT NULL DEFAULT '',
	common_name      TEXT NOT NULL DEFAULT '',
	derivatives      TEXT NOT NULL DEFAULT '[]',
	scientific_names TEXT NOT NULL DEFAULT '[]',
	cross_reactive   TEXT NOT NULL DEFAULT '[]',
	active           INTEGER NOT NULL DEFAULT 1
);
CREATE TABLE IF NOT EXISTS gras_ingredients (
	name          TEXT PRIMARY KEY,
	synonyms      TEXT NOT NULL DEFAULT '[]',
	gras_status   TEXT NOT NULL DEFAULT '',
	notice_number TEXT NOT NULL DEFAULT '',
	active        INTEGER NOT NULL DEFAULT 1
);
CREATE TABLE IF NOT EXISTS ndi_notifications (
	notification_number TEXT PRIMARY KEY,
	report_number       TEXT NOT NULL DEFAULT '',
	ingredient_name     TEXT NOT NULL,
	firm                TEXT NOT NULL DEFAULT '',
	submission_date     TEXT NOT NULL DEFAULT '',
	fda_response_date   TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS old_dietary_ingredients (
	ingredient_name     TEXT PRIMARY KEY,
	synonyms            TEXT NOT NULL DEFAULT '[]',
	source_organization TEXT NOT NULL DEFAULT '',
	active              INTEGER NOT NULL DEFAULT 1
);`

// OpenStore opens (or creates) the SQLite database at path and ensures the
// corpus tables exist.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open refdata store: %w", err)
	}
	if _, err := db.Exec(storeDDL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create refdata tables: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// ReplaceAllergens swaps the allergen table contents in one transaction.
func (s *Store) ReplaceAllergens(ctx context.Context, recs []AllergenDefinition) error {
	rows := make([][]any, len(recs))
	for i, r := range recs {
		rows[i] = []any{r.Name, r.Category, r.CommonName,
			encodeList(r.Derivatives), encodeList(r.ScientificNames), encodeList(r.CrossReactive), r.Active}
	}
	return s.replace(ctx, "allergens",
		`INSERT OR REPLACE INTO allergens (name, category, common_name, derivatives, scientific_names, cross_reactive, active)
		VALUES (?, ?, ?, ?, ?, ?, ?)`, rows)
}

// ReplaceGRAS swaps the GRAS table contents in one transaction.
func (s *Store) ReplaceGRAS(ctx context.Context, recs []GRASIngredientRecord) error {
	rows := make([][]any, len(recs))
	for i, r := range recs {
		rows[i] = []any{r.Name, encodeList(r.Synonyms), r.GRASStatus, r.NoticeNumber, r.Active}
	}
	return s.replace(ctx, "gras_ingredients",
		`INSERT OR REPLACE INTO gras_ingredients (name, synonyms, gras_status, notice_number, active)
		VALUES (?, ?, ?, ?, ?)`, rows)
}

// ReplaceNDI swaps the NDI notification table contents in one transaction.
func (s *Store) ReplaceNDI(ctx context.Context, recs []NDINotificationRecord) error {
	rows := make([][]any, len(recs))
	for i, r := range recs {
		rows[i] = []any{r.NotificationNumber, r.ReportNumber, r.IngredientName, r.Firm, r.SubmissionDate, r.FDAResponseDate}
	}
	return s.replace(ctx, "ndi_notifications",
		`INSERT OR REPLACE INTO ndi_notifications (notification_number, report_number, ingredient_name, firm, submission_date, fda_response_date)
		VALUES (?, ?, ?, ?, ?, ?)`, rows)
}

// ReplaceODI swaps the old dietary ingredient table contents in one transaction.
func (s *Store) ReplaceODI(ctx context.Context, recs []OldDietaryIngredientRecord) error {
	rows := make([][]any, len(recs))
	for i, r := range recs {
		rows[i] = []any{r.IngredientName, encodeList(r.Synonyms), r.SourceOrganization, r.Active}
	}
	return s.replace(ctx, "old_dietary_ingredients",
		`INSERT OR REPLACE INTO old_dietary_ingredients (ingredient_name, synonyms, source_organization, active)
		VALUES (?, ?, ?, ?)`, rows)
}

// ReplaceDataset writes every corpus of ds.
func (s *Store) ReplaceDataset(ctx context.Context, ds *Dataset) error {
	if err := s.ReplaceAllergens(ctx, ds.Allergens); err != nil {
		return err
	}
	if err := s.ReplaceGRAS(ctx, ds.GRAS); err != nil {
		return err
	}
	if err := s.ReplaceNDI(ctx, ds.NDI); err != nil {
		return err
	}
	return s.ReplaceODI(ctx, ds.ODI)
}

func (s *Store) replace(ctx context.Context, table, insert string, rows [][]any) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin %s: %w", table, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		return fmt.Errorf("clear %s: %w", table, err)
	}
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return fmt.Errorf("prepare %s: %w", table, err)
	}
	defer stmt.Close()
	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return fmt.Errorf("insert %s: %w", table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", table, err)
	}
	return nil
}

func (s *Store) FetchAllergens(ctx context.Context) ([]AllergenDefinition, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, category, common_name, derivatives, scientific_names, cross_reactive, active
		FROM allergens ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("query allergens: %w", err)
	}
	defer rows.Close()

	var out []AllergenDefinition
	for rows.Next() {
		var r AllergenDefinition
		var deriv, sci, cross string
		if err := rows.Scan(&r.Name, &r.Category, &r.CommonName, &deriv, &sci, &cross, &r.Active); err != nil {
			return nil, fmt.Errorf("scan allergen: %w", err)
		}
		r.Derivatives = decodeList(deriv)
		r.ScientificNames = decodeList(sci)
		r.CrossReactive = decodeList(cross)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) FetchGRAS(ctx context.Context) ([]GRASIngredientRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, synonyms, gras_status, notice_number, active
		FROM gras_ingredients ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("query gras: %w", err)
	}
	defer rows.Close()

	var out []GRASIngredientRecord
	for rows.Next() {
		var r GRASIngredientRecord
		var syn string
		if err := rows.Scan(&r.Name, &syn, &r.GRASStatus, &r.NoticeNumber, &r.Active); err != nil {
			return nil, fmt.Errorf("scan gras: %w", err)
		}
		r.Synonyms = decodeList(syn)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) FetchNDI(ctx context.Context) ([]NDINotificationRecord, error) {
	// Notification numbers are numeric strings; order them numerically.
	rows, err := s.db.QueryContext(ctx, `SELECT notification_number, report_number, ingredient_name, firm, submission_date, fda_response_date
		FROM ndi_notifications ORDER BY CAST(notification_number AS INTEGER), notification_number`)
	if err != nil {
		return nil, fmt.Errorf("query ndi: %w", err)
	}
	defer rows.Close()

	var out []NDINotificationRecord
	for rows.Next() {
		var r NDINotificationRecord
		if err := rows.Scan(&r.NotificationNumber, &r.ReportNumber, &r.IngredientName, &r.Firm,
			&r.SubmissionDate, &r.FDAResponseDate); err != nil {
			return nil, fmt.Errorf("scan ndi: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) FetchODI(ctx context.Context) ([]OldDietaryIngredientRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT ingredient_name, synonyms, source_organization, active
		FROM old_dietary_ingredients ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("query odi: %w", err)
	}
	defer rows.Close()

	var out []OldDietaryIngredientRecord
	for rows.Next() {
		var r OldDietaryIngredientRecord
		var syn string
		if err := rows.Scan(&r.IngredientName, &syn, &r.SourceOrganization, &r.Active); err != nil {
			return nil, fmt.Errorf("scan odi: %w", err)
		}
		r.Synonyms = decodeList(syn)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Counts returns the number of stored records per corpus.
func (s *Store) Counts(ctx context.Context) (map[Corpus]int, error) {
	tables := map[Corpus]string{
		CorpusAllergens: "allergens",
		CorpusGRAS:      "gras_ingredients",
		CorpusNDI:       "ndi_notifications",
		CorpusODI:       "old_dietary_ingredients",
	}
	out := make(map[Corpus]int, len(tables))
	for corpus, table := range tables {
		var n int
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			return nil, fmt.Errorf("count %s: %w", table, err)
		}
		out[corpus] = n
	}
	return out, nil
}

func encodeList(v []string) string {
	if len(v) == 0 {
		return "[]"
	}
	data, _ := json.Marshal(v)
	return string(data)
}

func decodeList(s string) []string {
	var v []string
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil
	}
	if len(v) == 0 {
		return nil
	}
	return v
}
