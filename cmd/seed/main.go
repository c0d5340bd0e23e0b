package main

import (
	"context"
	"flag"
	"log"

	"contentnav/internal/config"
	"contentnav/internal/domain/models/content"
	"contentnav/internal/domain/repositories"
	"contentnav/internal/repository/fixture"
	"contentnav/internal/repository/postgres"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	// Parse command-line flags
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up schema, don't load content")
	clearData := flag.Bool("clear-data", false, "Clear all folders, documents and views (keep schema)")
	fixturePath := flag.String("fixture", "", "Fixture to load (defaults to FIXTURE_PATH)")
	flag.Parse()

	// Load .env file
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()
	if cfg.DatabaseURL == "" {
		log.Fatalf("DATABASE_URL is required")
	}

	// SAFETY: Prevent destructive operations in production
	if cfg.Environment == "prod" && (*dropTables || *clearData) {
		log.Fatalf("🚫 BLOCKED: Cannot run destructive operations (--drop-tables or --clear-data) in production environment")
	}

	path := *fixturePath
	if path == "" {
		path = cfg.FixturePath
	}

	logger := config.NewLogger(cfg, nil)

	switch {
	case *clearData:
		log.Printf("🧹 Clearing data only (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)
	case *schemaOnly:
		log.Printf("🏗️  Setting up schema only (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)
	default:
		log.Printf("🌱 Seeding database from %s (environment: %s, prefix: %s)", path, cfg.Environment, cfg.TablePrefix)
	}

	// Create database connection pool
	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL, postgres.PoolConfig{
		MaxConns: 4,
		MinConns: 1,
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)

	// Drop tables if requested
	if *dropTables {
		log.Println("🗑️  Dropping all tables...")
		if err := postgres.DropTables(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		log.Println("✅ Tables dropped")
	}

	// Run schema to ensure tables exist
	log.Println("📋 Ensuring database schema is up to date...")
	if err := postgres.EnsureSchema(ctx, pool, tables); err != nil {
		log.Fatalf("Failed to run schema: %v", err)
	}
	log.Println("✅ Schema ready")

	if *schemaOnly {
		log.Println("✅ Schema setup complete (schema-only mode)")
		return
	}

	if *clearData {
		if err := postgres.ClearContent(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to clear data: %v", err)
		}
		log.Println("✅ Data cleared successfully")
		return
	}

	tree, err := fixture.ParseFile(path)
	if err != nil {
		log.Fatalf("Failed to load fixture: %v", err)
	}

	// Replace all content in one transaction so the server never sees a
	// half-loaded tree
	txManager := postgres.NewTransactionManager(pool, logger)
	stats, err := seed(ctx, pool, txManager, tables, tree)
	if err != nil {
		log.Fatalf("Failed to seed content: %v", err)
	}

	log.Printf("🎉 Seeding complete! %d folders, %d documents, %d views", stats.folders, stats.documents, stats.views)
}

type seedStats struct {
	folders   int
	documents int
	views     int
}

func seed(ctx context.Context, pool *pgxpool.Pool, txManager repositories.TransactionManager, tables *postgres.TableNames, tree *fixture.Tree) (seedStats, error) {
	var stats seedStats

	err := txManager.ExecTx(ctx, func(ctx context.Context) error {
		stats = seedStats{}
		db := postgres.GetExecutor(ctx, pool)

		if err := postgres.ClearContent(ctx, db, tables); err != nil {
			return err
		}

		positions := make(map[string]int)
		return tree.Walk(func(f *fixture.Folder, parentID string) error {
			row := postgres.FolderRow{
				ID:         f.ID,
				ParentID:   parentID,
				Name:       f.Name,
				OwnerID:    f.PersonalFor,
				IsPersonal: f.PersonalFor != "",
				Position:   positions[parentID],
			}
			positions[parentID]++
			if err := postgres.InsertFolder(ctx, db, tables, row); err != nil {
				return err
			}
			stats.folders++

			for i, d := range f.Documents {
				item := content.ContentItem{ID: d.ID, Kind: content.KindDocument, Title: d.Title}
				if err := postgres.InsertItem(ctx, db, tables, f.ID, item, i); err != nil {
					return err
				}
				stats.documents++
			}
			for i, v := range f.Views {
				item := content.ContentItem{ID: v.ID, Kind: content.KindView, Title: v.Title}
				if err := postgres.InsertItem(ctx, db, tables, f.ID, item, i); err != nil {
					return err
				}
				stats.views++
			}
			return nil
		})
	})
	return stats, err
}
