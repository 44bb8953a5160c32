package credentials

import "sync"

// refreshLocks serializes concurrent refreshes for the same (provider, owner)
// pair within this process. Two operations racing through an expiry window
// would otherwise both call the token endpoint and both write.
var refreshLocks sync.Map

func lockRefresh(key string) func() {
	mu, _ := refreshLocks.LoadOrStore(key, &sync.Mutex{})
	m := mu.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}
