package ledger

import (
	"context"
	"sync"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
)

// ItemLocker sección exclusiva en proceso por ítem. A lo sumo un callback de
// aplicación corre a la vez para un item_id dado; ítems distintos nunca se
// bloquean entre sí. La garantía entre procesos la aportan el FOR UPDATE y el
// UPDATE condicionado a versión dentro de la misma transacción; este locker
// acota la contención local y da un timeout cooperativo vía context.
type ItemLocker struct {
	mu    sync.Mutex
	items map[string]*itemLock
}

type itemLock struct {
	ch   chan struct{}
	refs int
}

// NewItemLocker construye el locker.
func NewItemLocker() *ItemLocker {
	return &ItemLocker{items: make(map[string]*itemLock)}
}

// Acquire toma la sección exclusiva del ítem o falla con domain.ErrLockTimeout
// si el context expira antes. El release devuelto debe llamarse exactamente una vez.
func (l *ItemLocker) Acquire(ctx context.Context, itemID string) (func(), error) {
	l.mu.Lock()
	entry, ok := l.items[itemID]
	if !ok {
		entry = &itemLock{ch: make(chan struct{}, 1)}
		l.items[itemID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	select {
	case entry.ch <- struct{}{}:
		return func() {
			<-entry.ch
			l.put(itemID, entry)
		}, nil
	case <-ctx.Done():
		l.put(itemID, entry)
		return nil, domain.ErrLockTimeout
	}
}

// put decrementa la referencia y limpia la entrada cuando nadie más la espera,
// para que el mapa no crezca con un canal por ítem histórico.
func (l *ItemLocker) put(itemID string, entry *itemLock) {
	l.mu.Lock()
	entry.refs--
	if entry.refs == 0 {
		delete(l.items, itemID)
	}
	l.mu.Unlock()
}
