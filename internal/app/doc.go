// Package app wires the query API: storage, services, handlers,
// middleware and the HTTP server, plus graceful shutdown.
//
// # Initialization Flow
//
//	1. Open the database (tables are created if missing)
//	2. Initialize OpenTelemetry (Prometheus metrics, optional stdout traces)
//	3. Create services and handlers
//	4. Build the chi router and middleware chain
//	5. Create the HTTP server
//
// # Usage
//
//	application, err := app.NewApplication(ctx, cfg, logger, nil)
//	if err != nil {
//	    return err
//	}
//	return application.Run()
//
// Run blocks until SIGINT or SIGTERM, then drains in-flight requests,
// closes the database and flushes telemetry. The package never calls
// os.Exit; the command decides the exit code.
//
// Bootstrap performs the setup every command shares: configuration,
// directories, logging, telemetry and pipeline metrics.
package app
