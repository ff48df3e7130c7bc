// Package storefront holds the shopping cart of a storefront session: the
// ordered list of products the user picked, kept in sync with a durable copy
// and validated against the inventory service's stock levels.
package storefront

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"gofalre.io/storefront/inventory"
	"gofalre.io/storefront/models"
	"gofalre.io/storefront/models/enum"
	"gofalre.io/storefront/notify"
	"gofalre.io/storefront/persistence"
)

// StorageKey is the key the cart is persisted under.
const StorageKey = "@RocketShoes:cart"

// optimisticAttempts bounds how often an operation is recomputed when the
// cart changed while its inventory lookup was in flight. After that it runs
// once more with commits from other operations held off.
const optimisticAttempts = 3

var tracer = otel.Tracer("gofalre.io/storefront")

// Inventory resolves product details and current stock. *inventory.Catalog implements it.
type Inventory interface {
	Product(ctx context.Context, productID int64) (*models.Product, error)
	Stock(ctx context.Context, productID int64) (*models.Stock, error)
}

var _ Inventory = (*inventory.Catalog)(nil)

// UpdateProductAmount is the input of Store.UpdateProductAmount.
type UpdateProductAmount struct {
	ProductID int64
	Amount    int
}

// Option configures a Store at construction.
type Option func(*Store)

// WithStorageKey overrides StorageKey.
func WithStorageKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// Store is the cart state container. It is safe for concurrent use.
type Store struct {
	inventory Inventory
	storage   persistence.Storage
	notifier  notify.Notifier
	logger    *zap.Logger
	key       string

	// commitMu orders commits. An operation that keeps losing the race
	// holds it across its lookup, which guarantees it commits.
	commitMu sync.Mutex

	mu      sync.RWMutex
	cart    models.Cart
	version uint64
}

// NewStore loads the persisted cart, or starts with an empty one when nothing was saved yet.
func NewStore(ctx context.Context, inv Inventory, storage persistence.Storage, notifier notify.Notifier, logger *zap.Logger, opts ...Option) (*Store, error) {
	s := &Store{
		inventory: inv,
		storage:   storage,
		notifier:  notifier,
		logger:    logger,
		key:       StorageKey,
	}
	for _, opt := range opts {
		opt(s)
	}

	data, found, err := storage.Load(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	s.cart = models.NewCart()
	if found {
		if s.cart, err = persistence.DecodeCart(data); err != nil {
			return nil, fmt.Errorf("failed to restore cart %q: %w", s.key, err)
		}
	}

	s.logger.Info("cart restored", zap.String("key", s.key), zap.Int("items", len(s.cart)))
	return s, nil
}

// Cart returns a copy of the current cart.
func (s *Store) Cart() models.Cart {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart.Clone()
}

// AddProduct puts productID in the cart with amount 1, or increments the
// existing entry after checking stock.
func (s *Store) AddProduct(ctx context.Context, productID int64) error {
	ctx, span := tracer.Start(ctx, "Store.AddProduct", trace.WithAttributes(attribute.Int64("product.id", productID)))
	defer span.End()

	err := s.apply(ctx, productID, func(ctx context.Context, cart models.Cart) (change, error) {
		// 商品已存在, 數量加一並重新檢查庫存
		if item, ok := cart.Find(productID); ok {
			return s.changeAmount(ctx, cart, productID, item.Amount+1)
		}

		// 商品不存在, 從商品目錄取得並加入購物車
		product, err := s.inventory.Product(ctx, productID)
		if err != nil {
			if errors.Is(err, inventory.ErrNotFound) {
				err = fmt.Errorf("%w: %w", ErrProductNotFound, err)
			}
			return change{}, newError(enum.FailureKindAdditionFailed, productID, err)
		}
		if product == nil || product.ID != productID {
			return change{}, newError(enum.FailureKindAdditionFailed, productID, ErrProductNotFound)
		}

		return change{next: cart.Append(*product), kind: enum.FailureKindAdditionFailed}, nil
	})

	return s.report(ctx, span, err)
}

// RemoveProduct drops productID from the cart. Removing an absent product does nothing.
func (s *Store) RemoveProduct(ctx context.Context, productID int64) error {
	ctx, span := tracer.Start(ctx, "Store.RemoveProduct", trace.WithAttributes(attribute.Int64("product.id", productID)))
	defer span.End()

	err := s.apply(ctx, productID, func(_ context.Context, cart models.Cart) (change, error) {
		if cart.IndexOf(productID) < 0 {
			return change{}, nil
		}
		return change{next: cart.Without(productID), kind: enum.FailureKindRemovalFailed}, nil
	})

	return s.report(ctx, span, err)
}

// UpdateProductAmount sets the amount of a product already in the cart.
// Amounts below 1 and products not in the cart are ignored.
func (s *Store) UpdateProductAmount(ctx context.Context, in UpdateProductAmount) error {
	ctx, span := tracer.Start(ctx, "Store.UpdateProductAmount", trace.WithAttributes(
		attribute.Int64("product.id", in.ProductID),
		attribute.Int("product.amount", in.Amount),
	))
	defer span.End()

	if in.Amount < 1 {
		return nil
	}

	err := s.apply(ctx, in.ProductID, func(ctx context.Context, cart models.Cart) (change, error) {
		return s.changeAmount(ctx, cart, in.ProductID, in.Amount)
	})

	return s.report(ctx, span, err)
}

// change is the next cart computed from a snapshot. A zero change means
// nothing to write. kind is reported when the change cannot be stored.
type change struct {
	next models.Cart
	kind enum.FailureKind
}

func (c change) empty() bool {
	return c.kind == ""
}

func (s *Store) changeAmount(ctx context.Context, cart models.Cart, productID int64, amount int) (change, error) {
	if amount < 1 || cart.IndexOf(productID) < 0 {
		return change{}, nil
	}

	stock, err := s.inventory.Stock(ctx, productID)
	if err != nil {
		return change{}, newError(enum.FailureKindUpdateFailed, productID, fmt.Errorf("failed to get stock: %w", err))
	}
	if stock == nil {
		return change{}, newError(enum.FailureKindUpdateFailed, productID, fmt.Errorf("no stock returned for product %d", productID))
	}
	if !stock.Allows(amount) {
		return change{}, newError(enum.FailureKindOutOfStock, productID,
			fmt.Errorf("%w: requested %d, available %d", ErrOutOfStock, amount, stock.Amount))
	}

	return change{next: cart.WithAmount(productID, amount), kind: enum.FailureKindUpdateFailed}, nil
}

// apply runs compute against a snapshot of the cart, then stores and
// publishes the result only if no other operation committed meanwhile.
// Otherwise compute runs again on the fresh cart.
func (s *Store) apply(ctx context.Context, productID int64, compute func(context.Context, models.Cart) (change, error)) error {
	for attempt := 1; attempt <= optimisticAttempts; attempt++ {
		done, err := s.attempt(ctx, productID, compute, false)
		if done || err != nil {
			return err
		}
		s.logger.Debug("cart changed during operation, retrying",
			zap.Int64("product_id", productID),
			zap.Int("attempt", attempt))
	}

	// 多次衝突後獨占提交, 保證這次一定成功
	s.commitMu.Lock()
	defer s.commitMu.Unlock()
	_, err := s.attempt(ctx, productID, compute, true)
	return err
}

// attempt computes one change and tries to commit it. done is false only when
// another operation committed first. exclusive means commitMu is already held.
func (s *Store) attempt(ctx context.Context, productID int64, compute func(context.Context, models.Cart) (change, error), exclusive bool) (done bool, err error) {
	cart, version := s.snapshot()

	c, err := compute(ctx, cart)
	if err != nil {
		return true, err
	}
	if c.empty() {
		return true, nil
	}

	if !exclusive {
		s.commitMu.Lock()
		defer s.commitMu.Unlock()
	}
	committed, err := s.commit(ctx, version, c.next)
	if err != nil {
		return true, newError(c.kind, productID, err)
	}
	return committed, nil
}

func (s *Store) snapshot() (models.Cart, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart, s.version
}

// commit persists next and makes it current, provided the cart is still at version.
func (s *Store) commit(ctx context.Context, version uint64, next models.Cart) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.version != version {
		return false, nil
	}

	data, err := persistence.EncodeCart(next)
	if err != nil {
		return false, err
	}
	if err = s.storage.Save(ctx, s.key, data); err != nil {
		return false, fmt.Errorf("failed to persist cart: %w", err)
	}

	s.cart = next
	s.version++
	return true, nil
}

// report sends one notification for a failed operation and returns err unchanged.
func (s *Store) report(ctx context.Context, span trace.Span, err error) error {
	if err == nil {
		return nil
	}

	var cartErr *Error
	if !errors.As(err, &cartErr) {
		cartErr = newError(enum.FailureKindUpdateFailed, 0, err)
		err = cartErr
	}

	fields := []zap.Field{
		zap.String("kind", cartErr.Kind.String()),
		zap.Int64("product_id", cartErr.ProductID),
		zap.Error(cartErr.Err),
	}
	if cartErr.Kind == enum.FailureKindOutOfStock {
		s.logger.Info("cart change rejected", fields...)
	} else {
		s.logger.Error("cart operation failed", fields...)
		span.RecordError(err)
		span.SetStatus(codes.Error, cartErr.Kind.String())
	}
	span.SetAttributes(attribute.String("cart.failure", cartErr.Kind.String()))

	s.notifier.Notify(ctx, cartErr.Kind.Message())
	return err
}
