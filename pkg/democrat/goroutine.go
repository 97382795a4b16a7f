package democrat

import "runtime"

// goroutineID returns the id of the calling goroutine, parsed from the
// "goroutine <id> [...]" header of its stack trace. The root execution lock
// uses it to let the goroutine that holds the lock re-enter it (effects and
// subscribers calling setters) while other goroutines wait.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)

	var id uint64
	for i := len("goroutine "); i < n; i++ {
		if buf[i] == ' ' {
			break
		}
		id = id*10 + uint64(buf[i]-'0')
	}
	return id
}
