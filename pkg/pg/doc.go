// Package pg opens the PostgreSQL pool used by the billing store and applies
// its goose migrations.
//
//	var cfg pg.Config // loaded with config.Load
//	pool, err := pg.Connect(ctx, cfg, log)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, cfg, db.Migrations, log); err != nil {
//		return err
//	}
//
// Connect retries until the database accepts a ping. Healthcheck plugs into
// the readiness endpoint. IsNotFoundError and IsDuplicateKeyError classify
// pgx errors for the store layer.
package pg
