// Package codec serializes democrat snapshots and patches.
//
// Snapshots and patches are wrapped in a versioned Envelope and encoded as
// JSON, YAML or MessagePack:
//
//	data, err := codec.EncodeSnapshot(codec.FormatJSON, store.Name(), store.GetSnapshot())
//	// Later, possibly in another process...
//	snap, err := codec.DecodeSnapshot(codec.FormatJSON, data)
//	restored := democrat.CreateStore[State](App.Create(props), democrat.WithSnapshot(snap))
//
// # Value Types
//
// Hook values lose their Go types on the way through a codec: numbers come
// back as float64 (JSON), int (YAML) or int64 (MessagePack), structs as
// map[string]any. The store converts them back when a snapshot seeds a hook
// or a patch is applied, so the same bytes restore into any store of the
// same shape.
package codec
