package postgres

import (
	"context"
	"fmt"

	"contentnav/internal/domain"
	"contentnav/internal/domain/models/content"
	"contentnav/internal/domain/repositories"
)

// EnsureSchema creates the content tables if they don't exist
func EnsureSchema(ctx context.Context, db repositories.DBTX, tables *TableNames) error {
	statements := []string{
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %[1]s (
				id TEXT PRIMARY KEY,
				parent_id TEXT REFERENCES %[1]s(id) ON DELETE CASCADE,
				name TEXT NOT NULL,
				owner_id TEXT,
				is_personal BOOLEAN NOT NULL DEFAULT FALSE,
				position INTEGER NOT NULL DEFAULT 0
			)
		`, tables.Folders),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %[1]s_parent_idx ON %[1]s(parent_id, position)`, tables.Folders),
		fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS %[1]s_personal_idx ON %[1]s(owner_id) WHERE is_personal`, tables.Folders),
	}

	for _, table := range []string{tables.Documents, tables.Views} {
		statements = append(statements,
			fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %[1]s (
					id TEXT PRIMARY KEY,
					folder_id TEXT NOT NULL REFERENCES %[2]s(id) ON DELETE CASCADE,
					title TEXT NOT NULL,
					position INTEGER NOT NULL DEFAULT 0
				)
			`, table, tables.Folders),
			fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %[1]s_folder_idx ON %[1]s(folder_id, position)`, table),
		)
	}

	for _, stmt := range statements {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// DropTables drops every content table
func DropTables(ctx context.Context, db repositories.DBTX, tables *TableNames) error {
	for _, table := range []string{tables.Views, tables.Documents, tables.Folders} {
		if _, err := db.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", table)); err != nil {
			return fmt.Errorf("drop %s: %w", table, err)
		}
	}
	return nil
}

// ClearContent deletes all rows but keeps the schema
func ClearContent(ctx context.Context, db repositories.DBTX, tables *TableNames) error {
	query := fmt.Sprintf("TRUNCATE %s, %s, %s", tables.Views, tables.Documents, tables.Folders)
	if _, err := db.Exec(ctx, query); err != nil {
		return fmt.Errorf("clear content: %w", err)
	}
	return nil
}

// FolderRow is a folder as inserted by the seeder
type FolderRow struct {
	ID         string
	ParentID   string // empty for root folders
	Name       string
	OwnerID    string
	IsPersonal bool
	Position   int
}

// InsertFolder inserts or replaces one folder row
func InsertFolder(ctx context.Context, db repositories.DBTX, tables *TableNames, f FolderRow) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, parent_id, name, owner_id, is_personal, position)
		VALUES ($1, NULLIF($2, ''), $3, NULLIF($4, ''), $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET parent_id = EXCLUDED.parent_id, name = EXCLUDED.name,
		    owner_id = EXCLUDED.owner_id, is_personal = EXCLUDED.is_personal,
		    position = EXCLUDED.position
	`, tables.Folders)

	if _, err := db.Exec(ctx, query, f.ID, f.ParentID, f.Name, f.OwnerID, f.IsPersonal, f.Position); err != nil {
		// The only unique constraint besides the primary key is one
		// personal folder per owner
		if IsPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("user %s already has a personal folder", f.OwnerID),
				ResourceType: "folder",
				ResourceID:   f.ID,
			}
		}
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("parent folder %s of folder %s: %w", f.ParentID, f.ID, domain.ErrNotFound)
		}
		return fmt.Errorf("insert folder %s: %w", f.ID, err)
	}
	return nil
}

// InsertItem inserts or replaces one document or view row
func InsertItem(ctx context.Context, db repositories.DBTX, tables *TableNames, folderID string, item content.ContentItem, position int) error {
	table := tables.Documents
	if item.Kind == content.KindView {
		table = tables.Views
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, folder_id, title, position)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET folder_id = EXCLUDED.folder_id, title = EXCLUDED.title, position = EXCLUDED.position
	`, table)

	if _, err := db.Exec(ctx, query, item.ID, folderID, item.Title, position); err != nil {
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("folder %s of %s %s: %w", folderID, item.Kind, item.ID, domain.ErrNotFound)
		}
		return fmt.Errorf("insert %s %s: %w", item.Kind, item.ID, err)
	}
	return nil
}
