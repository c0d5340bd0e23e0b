package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"contentnav/internal/domain"
	"contentnav/internal/domain/models/content"
	"contentnav/internal/domain/repositories"
	contentRepo "contentnav/internal/domain/repositories/content"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresContentRepository implements the content Repository interface
type PostgresContentRepository struct {
	pool      *pgxpool.Pool
	tables    *TableNames
	txManager repositories.TransactionManager
	logger    *slog.Logger
}

// NewContentRepository creates a new content repository
func NewContentRepository(config *RepositoryConfig, txManager repositories.TransactionManager) contentRepo.Repository {
	return &PostgresContentRepository{
		pool:      config.Pool,
		tables:    config.Tables,
		txManager: txManager,
		logger:    config.Logger,
	}
}

// folderColumns selects a folder with its child folder count
func (r *PostgresContentRepository) folderColumns(alias string) string {
	return fmt.Sprintf(`%[1]s.id, %[1]s.name,
		(SELECT COUNT(*) FROM %[2]s c WHERE c.parent_id = %[1]s.id)`, alias, r.tables.Folders)
}

func scanFolders(rows pgx.Rows) ([]content.FolderNode, error) {
	defer rows.Close()

	folders := []content.FolderNode{}
	for rows.Next() {
		var f content.FolderNode
		if err := rows.Scan(&f.ID, &f.Name, &f.ChildCount); err != nil {
			return nil, fmt.Errorf("scan folder: %w", err)
		}
		folders = append(folders, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate folders: %w", err)
	}
	return folders, nil
}

func scanItems(rows pgx.Rows, kind content.ContentKind) ([]content.ContentItem, error) {
	defer rows.Close()

	items := []content.ContentItem{}
	for rows.Next() {
		item := content.ContentItem{Kind: kind}
		if err := rows.Scan(&item.ID, &item.Title); err != nil {
			return nil, fmt.Errorf("scan %s: %w", kind, err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", kind, err)
	}
	return items, nil
}

// Folder retrieves folder metadata by ID
func (r *PostgresContentRepository) Folder(ctx context.Context, id string) (*content.FolderNode, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s f
		WHERE f.id = $1
	`, r.folderColumns("f"), r.tables.Folders)

	var f content.FolderNode
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id).Scan(&f.ID, &f.Name, &f.ChildCount)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get folder: %w", err)
	}

	return &f, nil
}

// PersonalFolder retrieves the personal folder owned by userID
func (r *PostgresContentRepository) PersonalFolder(ctx context.Context, userID string) (*content.FolderNode, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s f
		WHERE f.owner_id = $1 AND f.is_personal
		LIMIT 1
	`, r.folderColumns("f"), r.tables.Folders)

	var f content.FolderNode
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, userID).Scan(&f.ID, &f.Name, &f.ChildCount)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("personal folder for user %s: %w", userID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get personal folder: %w", err)
	}

	return &f, nil
}

// FolderChildren lists immediate child folders in position order
func (r *PostgresContentRepository) FolderChildren(ctx context.Context, id string) ([]content.FolderNode, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s f
		WHERE f.parent_id = $1
		ORDER BY f.position, f.id
	`, r.folderColumns("f"), r.tables.Folders)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("list folder children: %w", err)
	}
	return scanFolders(rows)
}

// FolderDocuments lists documents directly inside a folder
func (r *PostgresContentRepository) FolderDocuments(ctx context.Context, id string) ([]content.ContentItem, error) {
	return r.listItems(ctx, r.tables.Documents, content.KindDocument, id)
}

// FolderViews lists views directly inside a folder
func (r *PostgresContentRepository) FolderViews(ctx context.Context, id string) ([]content.ContentItem, error) {
	return r.listItems(ctx, r.tables.Views, content.KindView, id)
}

func (r *PostgresContentRepository) listItems(ctx context.Context, table string, kind content.ContentKind, folderID string) ([]content.ContentItem, error) {
	query := fmt.Sprintf(`
		SELECT id, title
		FROM %s
		WHERE folder_id = $1
		ORDER BY position, id
	`, table)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, folderID)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	return scanItems(rows, kind)
}

// SearchFolders finds folders whose name contains the query, case-insensitively
func (r *PostgresContentRepository) SearchFolders(ctx context.Context, query string) ([]content.FolderNode, error) {
	sql := fmt.Sprintf(`
		SELECT %s
		FROM %s f
		WHERE f.name ILIKE $1 ESCAPE '\'
		ORDER BY f.name, f.id
	`, r.folderColumns("f"), r.tables.Folders)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, sql, containsPattern(query))
	if err != nil {
		return nil, fmt.Errorf("search folders: %w", err)
	}
	return scanFolders(rows)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern turns user text into an ILIKE pattern matching it
// literally anywhere in the value
func containsPattern(query string) string {
	return "%" + likeEscaper.Replace(query) + "%"
}

// SearchContent finds documents and views whose title contains the query
func (r *PostgresContentRepository) SearchContent(ctx context.Context, query string) ([]content.ContentHit, error) {
	sql := fmt.Sprintf(`
		SELECT x.id, x.kind, x.title, f.id, f.name
		FROM (
			SELECT id, 'document' AS kind, title, folder_id FROM %s WHERE title ILIKE $1 ESCAPE '\'
			UNION ALL
			SELECT id, 'view' AS kind, title, folder_id FROM %s WHERE title ILIKE $1 ESCAPE '\'
		) x
		JOIN %s f ON f.id = x.folder_id
		ORDER BY x.title, x.kind, x.id
	`, r.tables.Documents, r.tables.Views, r.tables.Folders)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, sql, containsPattern(query))
	if err != nil {
		return nil, fmt.Errorf("search content: %w", err)
	}
	defer rows.Close()

	hits := []content.ContentHit{}
	for rows.Next() {
		var hit content.ContentHit
		var kind string
		if err := rows.Scan(&hit.ID, &kind, &hit.Title, &hit.FolderID, &hit.FolderName); err != nil {
			return nil, fmt.Errorf("scan content hit: %w", err)
		}
		hit.Kind = content.ContentKind(kind)
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate content hits: %w", err)
	}

	return hits, nil
}

// MoveDocument moves a document into the destination folder
func (r *PostgresContentRepository) MoveDocument(ctx context.Context, id, destinationFolderID string) error {
	return r.move(ctx, r.tables.Documents, content.KindDocument, id, destinationFolderID)
}

// MoveView moves a view into the destination folder
func (r *PostgresContentRepository) MoveView(ctx context.Context, id, destinationFolderID string) error {
	return r.move(ctx, r.tables.Views, content.KindView, id, destinationFolderID)
}

// move verifies the destination and updates the item in one transaction.
// The item is appended after the destination's existing content.
func (r *PostgresContentRepository) move(ctx context.Context, table string, kind content.ContentKind, id, destinationFolderID string) error {
	return r.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if _, err := r.Folder(txCtx, destinationFolderID); err != nil {
			return fmt.Errorf("destination: %w", err)
		}

		query := fmt.Sprintf(`
			UPDATE %[1]s
			SET folder_id = $2,
			    position = (SELECT COALESCE(MAX(position), -1) + 1 FROM %[1]s WHERE folder_id = $2)
			WHERE id = $1
		`, table)

		executor := GetExecutor(txCtx, r.pool)
		tag, err := executor.Exec(txCtx, query, id, destinationFolderID)
		if err != nil {
			if IsPgForeignKeyError(err) {
				return fmt.Errorf("destination folder %s: %w", destinationFolderID, domain.ErrNotFound)
			}
			return fmt.Errorf("move %s: %w", kind, err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%s %s: %w", kind, id, domain.ErrNotFound)
		}

		r.logger.Info("content moved",
			"kind", kind,
			"id", id,
			"to", destinationFolderID,
		)
		return nil
	})
}
