package scheduler

import "sync"

// leaseSet 进程内的软租约集合：同一封邮件同一时刻只允许一个分类请求在途。
// Process-local soft state: a crash simply drops the set, leaving the email
// pending and safe to retry on the next cycle.
type leaseSet struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func newLeaseSet() *leaseSet {
	return &leaseSet{held: make(map[string]struct{})}
}

// acquire returns false when a lease for id is already held.
func (l *leaseSet) acquire(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[id]; ok {
		return false
	}
	l.held[id] = struct{}{}
	return true
}

func (l *leaseSet) release(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, id)
}
