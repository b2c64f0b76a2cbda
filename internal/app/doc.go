// Package app wires the match report server together: configuration,
// logging, OpenTelemetry, the report services and the chi router.
//
// # Routes
//
// Health and metrics routes are public. Everything under /api/v1 passes
// through API key authentication when keys are configured, and report
// uploads are bounded by report.max_upload_bytes and the operation timeout.
//
// # Usage
//
//	app, err := app.NewApplication()
//	if err != nil {
//	    return err
//	}
//	return app.Run()
//
// Run blocks until SIGINT or SIGTERM and then shuts the server down within
// server.shutdown_timeout. Initialization errors are returned to the
// caller; the package never calls os.Exit.
package app
