package bridgedb

import (
	"context"
	"log"

	mghelper "github.com/defi-direct/bridge-middleware/pkg/pgutil/migrations"
	relaypg "github.com/defi-direct/bridge-middleware/pkg/relay/store/pg"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		log.Println("creating dispatches table...")
		if err := mghelper.CreateSchema(ctx, db, &relaypg.DispatchDAO{}); err != nil {
			return err
		}
		return mghelper.CreateModelIndexes(ctx, db, &relaypg.DispatchDAO{}, "caller", "status")
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping dispatches table...")
		return mghelper.DropTables(ctx, db, &relaypg.DispatchDAO{})
	})
}
