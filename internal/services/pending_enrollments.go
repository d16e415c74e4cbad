package services

import (
	"sync"

	"github.com/chioma-app/api/internal/auth"
)

// pendingEnrollments is an in-memory map of unverified TOTP enrollments
// keyed by user ID.
type pendingEnrollments struct {
	mu     sync.Mutex
	byUser map[string]*auth.Enrollment
}

func newPendingEnrollments() *pendingEnrollments {
	return &pendingEnrollments{byUser: make(map[string]*auth.Enrollment)}
}

func (p *pendingEnrollments) put(userID string, e *auth.Enrollment) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.byUser[userID] = e
}

func (p *pendingEnrollments) get(userID string) (*auth.Enrollment, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.byUser[userID]
	return e, ok
}

func (p *pendingEnrollments) remove(userID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.byUser, userID)
}
