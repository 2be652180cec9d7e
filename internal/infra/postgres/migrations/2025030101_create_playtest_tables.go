package migrations

import (
	"context"
	_ "embed"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

//go:embed 0001_create_playtest_tables.sql
var createPlaytestTablesSQL string

// Migrations is the ordered schema history. Migrations only ever add.
var Migrations = migrate.NewMigrations()

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, createPlaytestTablesSQL)
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS server_setting, packet_question, bonus_direct, buzz, bonus_part, bonus, tossup`)
			return err
		},
	)
}
