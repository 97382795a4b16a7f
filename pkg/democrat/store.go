package democrat

// Store is a mounted tree. Its state is the value the tree resolves to; it
// changes when a component sets state, a patch is applied, or Render
// replaces the root children.
type Store[S any] struct {
	root *root
}

// CreateStore mounts children and runs the first render synchronously, so
// GetState is valid as soon as CreateStore returns. Passive effects of the
// first render run on the scheduler.
//
// CreateStore panics with a *FatalError when children cannot be mounted.
func CreateStore[S any](children any, opts ...Option) *Store[S] {
	r := newRoot(children, opts...)
	defer func() {
		if rec := recover(); rec != nil {
			r.metrics.StoreClosed()
			if r.owned != nil {
				r.owned.Close()
			}
			panic(rec)
		}
	}()
	r.exec(func() {
		r.metrics.StoreOpened()
		r.render("mount")
	})
	return &Store[S]{root: r}
}

// ID returns the unique ID of the store.
func (s *Store[S]) ID() string { return s.root.id }

// Name returns the name set with WithName, or the ID.
func (s *Store[S]) Name() string { return s.root.name }

// GetState returns the value of the last settled render.
func (s *Store[S]) GetState() S {
	return convertValue[S](s.root.getState())
}

// Subscribe registers fn to be called after every settled render. fn runs
// outside the store lock and may call any store method.
func (s *Store[S]) Subscribe(fn func()) (unsubscribe func()) {
	return s.root.subscribe(fn)
}

// SubscribePatches registers fn to receive the patches recorded by each
// settled render that recorded any.
func (s *Store[S]) SubscribePatches(fn func([]Patch)) (unsubscribe func()) {
	return s.root.subscribePatches(fn)
}

// ApplyPatches queues patches for replay. Each patch sets the addressed
// state hook, or reduces the addressed reducer hook with its action, without
// recording a new patch. Patches that do not match the tree are skipped and
// reported to the patch error handler.
func (s *Store[S]) ApplyPatches(patches []Patch) {
	s.root.applyPatches(patches)
}

// GetSnapshot captures the state and reducer values of the whole tree.
func (s *Store[S]) GetSnapshot() *Snapshot {
	return s.root.getSnapshot()
}

// Render replaces the root children. The new children are reconciled
// against the mounted tree on the next flush.
func (s *Store[S]) Render(children any) {
	s.root.setChildren(children)
}

// Destroy runs every outstanding cleanup and stops the store. Any later
// mutation panics with ErrDestroyed; a second Destroy panics with
// ErrAlreadyDestroyed.
func (s *Store[S]) Destroy() {
	s.root.destroy()
}
