package main

import (
	"context"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"anime-forge-api/internal/config"
	"anime-forge-api/internal/domain/entity"
	"anime-forge-api/internal/infrastructure/persistence/postgres"
	"anime-forge-api/internal/wire"
)

// defaultStyles 画风库初始条目
var defaultStyles = []entity.Style{
	{Name: "Shonen Classic", Description: "Bold lines, dynamic action framing, high-contrast screentone.", Tags: entity.StringList{"action", "shonen"}},
	{Name: "Shojo Pastel", Description: "Soft pastel palette, sparkling highlights, expressive eyes.", Tags: entity.StringList{"romance", "shojo"}},
	{Name: "Seinen Noir", Description: "Heavy shadows, gritty textures, muted colors.", Tags: entity.StringList{"drama", "seinen"}},
	{Name: "Chibi", Description: "Super-deformed proportions for comedic beats.", Tags: entity.StringList{"comedy"}},
	{Name: "Cel Shaded", Description: "Flat cel shading with crisp color blocks, TV anime look.", Tags: entity.StringList{"tv", "cel"}},
}

func main() {
	_ = godotenv.Load()

	fmt.Println("Starting system bootstrap...")

	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx := context.Background()

	// 2. 初始化数据层（仅 PostgreSQL）
	dataLayer, cleanup, err := wire.InitializePostgresOnly(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to initialize data layer: %v", err)
	}
	defer cleanup()

	// 3. 表结构、SQL 函数与 RLS 策略
	if err := postgres.Migrate(ctx, dataLayer.PgClient); err != nil {
		log.Fatalf("failed to migrate schema: %v", err)
	}
	fmt.Println("Schema migrated.")

	// 4. 首个管理员
	if err := ensureAdmin(ctx, dataLayer, cfg.Bootstrap); err != nil {
		log.Fatalf("failed to bootstrap admin: %v", err)
	}

	// 5. 画风库
	for i := range defaultStyles {
		style := defaultStyles[i]
		existing, err := dataLayer.StyleRepo.GetByName(ctx, style.Name)
		if err != nil {
			log.Fatalf("failed to check style %q: %v", style.Name, err)
		}
		if existing != nil {
			continue
		}
		style.IsActive = true
		if err := dataLayer.StyleRepo.Create(ctx, &style); err != nil {
			log.Fatalf("failed to create style %q: %v", style.Name, err)
		}
		fmt.Printf("Style %q created.\n", style.Name)
	}

	fmt.Println("Bootstrap completed successfully.")
}

func ensureAdmin(ctx context.Context, dataLayer *wire.PostgresOnlyDataLayer, cfg config.BootstrapConfig) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		fmt.Println("Admin credentials not configured, skipping admin creation.")
		return nil
	}
	name := cfg.AdminName
	if name == "" {
		name = "System Admin"
	}

	return dataLayer.TxManager.WithTransaction(ctx, func(txCtx context.Context) error {
		admin, err := dataLayer.ProfileRepo.GetByEmail(txCtx, cfg.AdminEmail)
		if err != nil {
			return err
		}
		if admin == nil {
			fmt.Printf("Creating admin user: %s...\n", cfg.AdminEmail)
			admin = entity.NewProfile(cfg.AdminEmail, name)
			if err := admin.SetPassword(cfg.AdminPassword); err != nil {
				return fmt.Errorf("hash admin password: %w", err)
			}
			if err := dataLayer.ProfileRepo.Create(txCtx, admin); err != nil {
				return err
			}
		} else {
			fmt.Printf("Admin user %s already exists.\n", cfg.AdminEmail)
		}

		for _, role := range []entity.AppRole{entity.AppRoleAdmin, entity.AppRoleCreator} {
			if err := dataLayer.RoleRepo.Grant(txCtx, admin.ID, role); err != nil {
				return fmt.Errorf("grant %s: %w", role, err)
			}
		}
		return nil
	})
}
