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
		log.Println("creating fee_totals table...")
		return mghelper.CreateSchema(ctx, db, &ledgerpg.FeeTotalDAO{})
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping fee_totals table...")
		return mghelper.DropTables(ctx, db, &ledgerpg.FeeTotalDAO{})
	})
}
