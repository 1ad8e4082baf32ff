package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"

	"anime-forge-api/internal/domain/entity"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Migrate 同步表结构；PostgreSQL 下再建级联外键，执行授权函数与 RLS 脚本
func Migrate(ctx context.Context, client *Client) error {
	ctx, span := tracer.Start(ctx, "postgres.Migrate")
	defer span.End()

	db := client.db.WithContext(ctx)
	if err := db.AutoMigrate(entity.All()...); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to auto migrate: %w", err)
	}

	if !client.isPostgres() {
		return nil
	}

	files, err := fs.Glob(migrationFS, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("failed to list migrations: %w", err)
	}
	sort.Strings(files)

	for _, fk := range entity.ForeignKeys() {
		if err := db.Exec(foreignKeyDDL(fk)).Error; err != nil {
			span.RecordError(err)
			return fmt.Errorf("failed to add foreign key %s: %w", fk.Name(), err)
		}
	}

	for _, name := range files {
		script, err := migrationFS.ReadFile(name)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", name, err)
		}
		if err := db.Exec(string(script)).Error; err != nil {
			span.RecordError(err)
			return fmt.Errorf("failed to apply migration %s: %w", name, err)
		}
	}
	return nil
}
