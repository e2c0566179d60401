package cmd

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"github.com/sirupsen/logrus"

	"github.com/vibast-solutions/ms-go-academy/app/repository"
	"github.com/vibast-solutions/ms-go-academy/config"
)

// openStore connects the backend selected by STORE_DRIVER. The returned
// func releases the connection.
func openStore(ctx context.Context, cfg *config.Config) (repository.UserStore, func(), error) {
	switch cfg.Store.Driver {
	case config.StoreMongo:
		client, err := repository.ConnectMongo(ctx, repository.MongoOptions{
			URL:            cfg.Store.Mongo.URL,
			ConnectTimeout: cfg.Store.Mongo.ConnectTimeout,
			RetryAttempts:  cfg.Store.Mongo.RetryAttempts,
			RetryInterval:  cfg.Store.Mongo.RetryInterval,
		})
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if err := client.Disconnect(context.Background()); err != nil {
				logrus.WithError(err).Warn("Failed to disconnect from mongo")
			}
		}

		repo := repository.NewMongoUserRepository(client.Database(cfg.Store.Mongo.Database))
		if err := repo.EnsureIndexes(ctx); err != nil {
			closeFn()
			return nil, nil, fmt.Errorf("ensure mongo indexes: %w", err)
		}
		return repo, closeFn, nil

	case config.StoreMySQL:
		db, err := sql.Open("mysql", cfg.Store.MySQL.DSN)
		if err != nil {
			return nil, nil, err
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("ping mysql: %w", err)
		}
		return repository.NewMySQLUserRepository(db), func() { _ = db.Close() }, nil

	case config.StoreMemory:
		logrus.Warn("Using the in-memory store, data is lost on restart")
		return repository.NewMemoryUserRepository(), func() {}, nil
	}

	return nil, nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
}
