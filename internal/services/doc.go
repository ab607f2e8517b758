// Package services implements the business logic behind the query API.
// It sits between the HTTP handlers and the storage layer so handlers
// never see SQL and storage never sees HTTP.
//
// Services take their dependencies through constructors:
//
//	store, _ := storage.Open(ctx, cfg.Database, logger)
//	data := services.NewDataService(store, logger)
//	health := services.NewHealthService(config.AppVersion, store, logger)
//
// Errors are returned as package sentinels (ErrOperatorNotFound,
// ErrInvalidInput) wrapped with context; handlers map them to RFC 7807
// problem documents.
package services
