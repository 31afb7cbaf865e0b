// Package app wires the insurance dashboard together and manages its
// lifecycle.
//
// # Initialization Flow
//
//	1. Load configuration from defaults, an optional YAML file and the environment
//	2. Initialize logging and OpenTelemetry
//	3. Create the session store and business metrics
//	4. Initialize services with their dependencies
//	5. Set up handlers, middleware and the embedded page
//	6. Configure the HTTP server
//
// # Usage
//
//	application, err := app.NewApplication(frontendFS)
//	if err != nil {
//	    return err
//	}
//	return application.Run()
//
// # Graceful Shutdown
//
// Run blocks until SIGINT or SIGTERM, then drains in-flight requests, stops
// the session sweeper and flushes telemetry. The app never calls os.Exit;
// main decides the exit code.
package app
