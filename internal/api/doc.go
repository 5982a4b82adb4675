// Package api serves the Mökkiwahti REST API.
//
// Every request under /api runs in a single store transaction. Path
// segments naming a location, sensor or measurement are resolved inside
// that transaction before the handler runs, so an unknown identifier is
// answered with 404 and handlers only ever see live entities.
//
// The server follows the same lifecycle as the other components:
//
//	srv, err := api.New(deps)
//	srv.Start(ctx)
//	defer srv.Close()
package api
