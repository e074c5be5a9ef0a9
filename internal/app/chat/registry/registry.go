// Package registry tracks live chat connections per account and delivers
// formatted messages to them.
//
// The map is guarded by a RWMutex. Recipients are captured under the lock
// and delivery happens outside it, one goroutine per recipient, so a slow
// or broken peer never holds the lock or delays the others. Conn
// implementations are expected to bound their own writes.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/multierr"
)

// ReasonReplaced is sent to a connection evicted by a newer one for the
// same account.
const ReasonReplaced = "replaced by a new connection"

// Conn is a live, writable chat connection.
type Conn interface {
	Send(text string) error
	Close(reason string) error
}

type entry struct {
	conn Conn
	name string
}

type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

func New() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// Register records conn for account. An existing connection for the same
// account is evicted and closed.
func (r *Registry) Register(account string, conn Conn, displayName string) {
	r.mu.Lock()
	prev, existed := r.entries[account]
	r.entries[account] = &entry{conn: conn, name: displayName}
	r.mu.Unlock()

	if existed && prev.conn != conn {
		_ = prev.conn.Close(ReasonReplaced)
	}
}

// Unregister removes the entry holding conn, if any, and reports whether
// something was removed. An evicted connection unregistering itself later
// does not touch its replacement.
func (r *Registry) Unregister(conn Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for account, e := range r.entries {
		if e.conn == conn {
			delete(r.entries, account)
			return true
		}
	}
	return false
}

// Broadcast delivers "name: text" to every connection, the sender's
// included. The returned error aggregates per-connection failures.
func (r *Registry) Broadcast(sender, text string) error {
	r.mu.RLock()
	msg := fmt.Sprintf("%s: %s", r.nameLocked(sender), text)
	targets := make([]Conn, 0, len(r.entries))
	for _, e := range r.entries {
		targets = append(targets, e.conn)
	}
	r.mu.RUnlock()

	return deliver(targets, msg)
}

// SendDirect delivers "(private)name: text" to recipient only. It is a
// no-op when the recipient is not connected.
func (r *Registry) SendDirect(sender, recipient, text string) error {
	r.mu.RLock()
	msg := fmt.Sprintf("(private)%s: %s", r.nameLocked(sender), text)
	e, ok := r.entries[recipient]
	var target Conn
	if ok {
		target = e.conn
	}
	r.mu.RUnlock()

	if target == nil {
		return nil
	}
	return target.Send(msg)
}

// UpdateDisplayName changes the name used for future messages from account.
// It is a no-op when account has no open connection.
func (r *Registry) UpdateDisplayName(account, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.entries[account]; ok {
		e.name = name
	}
}

// Online returns the connected accounts in lexical order.
func (r *Registry) Online() []string {
	r.mu.RLock()
	out := make([]string, 0, len(r.entries))
	for account := range r.entries {
		out = append(out, account)
	}
	r.mu.RUnlock()

	sort.Strings(out)
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// nameLocked needs r.mu held.
func (r *Registry) nameLocked(account string) string {
	if e, ok := r.entries[account]; ok && e.name != "" {
		return e.name
	}
	return account
}

func deliver(targets []Conn, msg string) error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs error
	)
	for _, c := range targets {
		wg.Add(1)
		go func(c Conn) {
			defer wg.Done()
			if err := c.Send(msg); err != nil {
				mu.Lock()
				errs = multierr.Append(errs, err)
				mu.Unlock()
			}
		}(c)
	}
	wg.Wait()
	return errs
}
