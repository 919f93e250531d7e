// Package dev provides the development server and live reload.
//
// The server builds the component tree once, serves the output directory,
// and rebuilds whenever the watcher sees a source file change. Connected
// browsers are told to reload after every successful rebuild, or to show an
// error overlay when a rebuild fails.
//
// # Usage
//
//	srv, err := dev.NewServer(dev.ServerOptions{Config: cfg})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer cancel()
//
//	if err := srv.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// # Endpoints
//
//	GET /                    the output tree
//	GET /_bricks/manifest    the structured manifest of the last good build
//	GET /_bricks/reload      WebSocket for reload messages
//	GET /_bricks/reload.js   the reload client
//	GET /metrics             Prometheus metrics
//
// # Reload Protocol
//
// Messages are JSON-encoded:
//
//	{"type": "reload"}                // Triggers full page reload
//	{"type": "css"}                   // Reloads stylesheets only
//	{"type": "error", "error": "..."} // Shows error overlay
//	{"type": "clear"}                 // Clears error overlay
package dev
