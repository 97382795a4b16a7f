/*
Package democrat is an incremental computation runtime built on hooks.

Components are plain functions of props that call hooks to hold state,
memoize derived values and register effects. They compose into a tree of
children values: a single *Element, slices, insertion-ordered *Map values,
string-keyed maps and context providers, nested arbitrarily. A Store mounts
the tree, resolves it to a value, and on every state change re-evaluates only
the components whose state, props or context changed.

# Components

	var Counter = democrat.NewComponent("Counter", func(h *democrat.Hooks, _ struct{}) int {
	    count, setCount := democrat.UseState(h, 0)
	    democrat.UseLayoutEffect(h, func() democrat.Cleanup {
	        if count < 3 {
	            setCount.Update(func(c int) int { return c + 1 })
	        }
	        return nil
	    }, democrat.Deps{count})
	    return count
	})

	store := democrat.CreateStore[int](Counter.Create(struct{}{}))
	defer store.Destroy()
	store.GetState() // 3

Hooks are positional: a component must call the same hooks in the same order
on every render. A mismatch panics with ErrHookOrder.

# Rendering and effects

State setters never mutate synchronously. They queue the change on the store,
and a scheduler task applies queued changes and renders. After each render,
layout effects run synchronously; passive effects are scheduled as a separate
task. When a layout effect sets state, the pending passive effects run
immediately and the tree renders again, so subscribers are notified only once
the tree has settled. A component that sets state on every render never
settles.

# Identity

Children of a slice are matched to the previous render by key when their
element has one (Element.WithKey), by position otherwise. Record and map
children are matched by their key. A child is remounted, losing its state,
when its kind, component or key changes.

# Patches and snapshots

Every settled render that changed state emits Patch values describing the
mutations. Replaying them with ApplyPatches on another store of the same
shape reproduces the state. GetSnapshot captures all state and reducer values
so a store can be recreated with WithSnapshot.

# Errors

Misuse of the runtime (hooks outside a render, hook order changes, setting
state during a render, mutating a destroyed store) panics with a *FatalError.
Use errors.Is with the Err* sentinels to tell them apart.
*/
package democrat
