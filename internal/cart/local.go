package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/leon-morival/cynaMobile/internal/domain"
	"github.com/leon-morival/cynaMobile/internal/storage"
)

// Local is the legacy device-persisted cart, kept as a compatibility mode for
// when no backend cart endpoint is reachable. Quantities are client-owned and
// totals are priced locally (annual approximated as ten months). The
// server-synced Synchronizer is the design target; prefer it whenever a
// token and backend are available.
type Local struct {
	mu    sync.Mutex
	lines []domain.CartLine
	kv    storage.Store
	log   *slog.Logger
}

func NewLocal(kv storage.Store, log *slog.Logger) *Local {
	return &Local{kv: kv, log: log}
}

// Load restores persisted lines. A corrupt payload is discarded rather than
// propagated.
func (l *Local) Load(ctx context.Context) error {
	raw, err := l.kv.Get(ctx, storage.KeyLocalCart)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load local cart: %w", err)
	}

	var lines []domain.CartLine
	if err := json.Unmarshal(raw, &lines); err != nil {
		l.log.Error("corrupt local cart, discarding", slog.Any("error", err))
		return l.kv.Delete(ctx, storage.KeyLocalCart)
	}

	l.mu.Lock()
	l.lines = lines
	l.mu.Unlock()
	return nil
}

// Add appends a line priced from the product's tier for the interval.
func (l *Local) Add(ctx context.Context, product *domain.Product, interval domain.BillingInterval, quantity int) error {
	if quantity < 1 {
		return errors.New("quantity must be >= 1")
	}
	unit, ok := product.Price(interval)
	if !ok {
		return ErrIntervalNotOffered
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, domain.CartLine{
		LocalID:   uuid.NewString(),
		ProductID: product.ID,
		Interval:  interval,
		UnitPrice: unit,
		Quantity:  quantity,
	})
	return l.persistLocked(ctx)
}

// SetQuantity updates a line's quantity; zero or below removes the line.
func (l *Local) SetQuantity(ctx context.Context, localID string, quantity int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if quantity <= 0 {
		kept := l.lines[:0]
		for _, line := range l.lines {
			if line.LocalID != localID {
				kept = append(kept, line)
			}
		}
		l.lines = kept
	} else {
		for i := range l.lines {
			if l.lines[i].LocalID == localID {
				l.lines[i].Quantity = quantity
			}
		}
	}
	return l.persistLocked(ctx)
}

func (l *Local) Remove(ctx context.Context, localID string) error {
	return l.SetQuantity(ctx, localID, 0)
}

func (l *Local) ChangeInterval(ctx context.Context, localID string, product *domain.Product, interval domain.BillingInterval) error {
	unit, ok := product.Price(interval)
	if !ok {
		return ErrIntervalNotOffered
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.lines {
		if l.lines[i].LocalID == localID {
			l.lines[i].Interval = interval
			l.lines[i].UnitPrice = unit
		}
	}
	return l.persistLocked(ctx)
}

// Snapshot prices the cart under the local rule and tags it as such; a local
// snapshot never mixes with server pricing.
func (l *Local) Snapshot() domain.Cart {
	l.mu.Lock()
	defer l.mu.Unlock()

	cart := domain.Cart{
		Lines:    make([]domain.CartLine, len(l.lines)),
		TotalTTC: decimal.Zero,
	}
	copy(cart.Lines, l.lines)
	cart.RecomputeLocalTotal()
	return cart
}

func (l *Local) Clear(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = nil
	return l.kv.Delete(ctx, storage.KeyLocalCart)
}

// persistLocked writes the current lines under l.mu, so a mutation and its
// write reach the store as one unit and concurrent mutations cannot persist
// out of order.
func (l *Local) persistLocked(ctx context.Context) error {
	raw, err := json.Marshal(l.lines)
	if err != nil {
		return fmt.Errorf("marshal local cart: %w", err)
	}
	if err := l.kv.Set(ctx, storage.KeyLocalCart, raw); err != nil {
		return fmt.Errorf("persist local cart: %w", err)
	}
	return nil
}
