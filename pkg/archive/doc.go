// Package archive keeps encoded snapshots and patch batches in a key-value
// object store, so a store can be restored from the most recent snapshot
// and its history replayed later.
//
// Two backends are provided:
//
//   - DiskStore writes one file per object under a directory.
//   - S3Store writes objects to an S3 bucket (or any S3-compatible service)
//     under a key prefix.
//
// Open picks a backend from a location string:
//
//	./snapshots               disk
//	file:///var/lib/democrat  disk
//	s3://bucket/prefix        S3, configured from the AWS_* environment
//
// Objects are keyed "<store>/<timestamp>.<kind>.<ext>", where the
// timestamp sorts lexically in creation order:
//
//	counter/20240102T030405.000000000Z.snapshot.yaml
//	counter/20240102T030405.000000000Z.patches.msgpack
//
// # Usage
//
//	st, err := archive.Open(ctx, "s3://my-bucket/democrat")
//	arc := archive.New(st, archive.WithFormat(codec.FormatMsgPack))
//
//	key, err := arc.SaveSnapshot(ctx, store.Name(), store.GetSnapshot())
//	snap, err := arc.LatestSnapshot(ctx, store.Name())
package archive
