package acl

import "sync"

// pathLocks hands out one mutex per canonical absolute path. Mutations of
// the same path serialize; unrelated paths proceed in parallel. Locks are
// created lazily and never evicted, which is bounded by the number of
// distinct paths mutated over the process lifetime.
type pathLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newPathLocks() *pathLocks {
	return &pathLocks{locks: map[string]*sync.Mutex{}}
}

func (p *pathLocks) get(path string) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()
	l, ok := p.locks[path]
	if !ok {
		l = &sync.Mutex{}
		p.locks[path] = l
	}
	return l
}
