package expressions

import "sync"

// programCache memoizes compiled programs by source text. Safe for
// concurrent use; compile runs under the write lock so each expression is
// compiled once.
type programCache[P any] struct {
	mu    sync.RWMutex
	items map[string]P
}

func newProgramCache[P any]() *programCache[P] {
	return &programCache[P]{items: make(map[string]P)}
}

func (c *programCache[P]) get(expression string, compile func(string) (P, error)) (P, error) {
	c.mu.RLock()
	if p, ok := c.items[expression]; ok {
		c.mu.RUnlock()
		return p, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check after acquiring write lock.
	if p, ok := c.items[expression]; ok {
		return p, nil
	}
	p, err := compile(expression)
	if err != nil {
		var zero P
		return zero, err
	}
	c.items[expression] = p
	return p, nil
}

func (c *programCache[P]) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
