package bridgedb

import (
	"context"
	"log"

	"github.com/defi-direct/bridge-middleware/pkg/bank"
	mghelper "github.com/defi-direct/bridge-middleware/pkg/pgutil/migrations"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		log.Println("creating balances table...")
		return mghelper.CreateSchema(ctx, db, &bank.BalanceDAO{})
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping balances table...")
		return mghelper.DropTables(ctx, db, &bank.BalanceDAO{})
	})
}
