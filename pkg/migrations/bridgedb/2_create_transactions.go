package bridgedb

import (
	"context"
	"log"

	ledgerpg "github.com/defi-direct/bridge-middleware/pkg/ledger/store/pg"
	mghelper "github.com/defi-direct/bridge-middleware/pkg/pgutil/migrations"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		log.Println("creating transactions table...")
		if err := mghelper.CreateSchema(ctx, db, &ledgerpg.TransactionDAO{}); err != nil {
			return err
		}
		return mghelper.CreateModelIndexes(ctx, db, &ledgerpg.TransactionDAO{}, "depositor", "token")
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping transactions table...")
		return mghelper.DropTables(ctx, db, &ledgerpg.TransactionDAO{})
	})
}
