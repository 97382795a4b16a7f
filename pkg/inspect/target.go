package inspect

import "github.com/vango-dev/democrat/pkg/democrat"

// Target is the store surface the inspect server works against. Stores are
// generic over their state type, so StoreTarget adapts one to this interface.
type Target interface {
	ID() string
	Name() string
	State() any
	GetSnapshot() *democrat.Snapshot
	ApplyPatches(patches []democrat.Patch)
	SubscribePatches(fn func([]democrat.Patch)) (unsubscribe func())
}

type storeTarget[S any] struct {
	*democrat.Store[S]
}

// StoreTarget returns a Target backed by s.
func StoreTarget[S any](s *democrat.Store[S]) Target {
	return storeTarget[S]{Store: s}
}

func (t storeTarget[S]) State() any { return t.GetState() }
