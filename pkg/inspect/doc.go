// Package inspect serves a running store over HTTP for debugging tools.
//
// The server exposes:
//
//	GET  /                 store id, name and supported formats
//	GET  /state            the current state as JSON
//	GET  /snapshot         a codec envelope (?format=json|yaml|msgpack)
//	POST /patches          apply a codec envelope of patches
//	GET  /patches/ws       websocket stream of patch envelopes
//	GET  /archive          archived snapshots (with Config.Archive)
//	POST /archive          archive the current snapshot (with Config.Archive)
//	GET  /metrics          Prometheus scrape endpoint
//
// Mount it next to an application router, or run it standalone:
//
//	srv := inspect.New(inspect.StoreTarget(store), inspect.DefaultConfig())
//	defer srv.Close()
//	http.Handle("/_democrat/", http.StripPrefix("/_democrat", srv.Handler()))
//
// State is encoded with encoding/json, so fields holding setters or
// dispatchers should be tagged `json:"-"`.
package inspect
