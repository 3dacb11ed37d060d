package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopstack-backend/pkg/db/models"
	"github.com/angelmondragon/shopstack-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shopstack-backend/pkg/errors"
	"github.com/angelmondragon/shopstack-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Service exposes cart operations for one tenant.
type Service interface {
	GetCart(ctx context.Context, owner Owner) (*CartDTO, error)
	AddItem(ctx context.Context, owner Owner, productID uuid.UUID, quantity int) (*CartDTO, error)
	UpdateItem(ctx context.Context, owner Owner, itemID uuid.UUID, quantity int) (*CartDTO, error)
	RemoveItem(ctx context.Context, owner Owner, itemID uuid.UUID) (*CartDTO, error)
	Clear(ctx context.Context, owner Owner) (*CartDTO, error)
	Merge(ctx context.Context, userID uuid.UUID, sessionID string) (*CartDTO, error)
}

type service struct {
	repo     CartRepository
	tx       txRunner
	products productLoader
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo CartRepository, tx txRunner, products productLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	return &service{repo: repo, tx: tx, products: products}, nil
}

// GetCart returns the owner's active cart, creating an empty one on first use.
func (s *service) GetCart(ctx context.Context, owner Owner) (*CartDTO, error) {
	if !owner.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart owner is required")
	}

	var cart *models.Cart
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		cart, err = s.findOrCreate(ctx, s.repo.WithTx(tx), owner)
		return err
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return FromModel(cart), nil
}

// AddItem adds quantity of the product to the owner's cart. Adding a product
// already in the cart increments the existing line and re-prices it from the
// current product price.
func (s *service) AddItem(ctx context.Context, owner Owner, productID uuid.UUID, quantity int) (*CartDTO, error) {
	if !owner.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart owner is required")
	}
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		cart, err := s.findOrCreate(ctx, txRepo, owner)
		if err != nil {
			return err
		}

		product, err := s.products.FindByID(ctx, productID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}
		if !product.IsActive {
			return pkgerrors.New(pkgerrors.CodeValidation, "product is not available")
		}

		// Stock gates the requested amount only, not the accumulated line.
		if !product.Purchasable(quantity) {
			return pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock for product").
				WithDetails(map[string]any{"available_qty": product.AvailableQty})
		}

		existing, err := txRepo.FindItemByProduct(ctx, cart.ID, productID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if existing != nil {
			existing.Quantity += quantity
			existing.Price = product.Price
			existing.Subtotal = product.Price.Mul(decimalFromInt(existing.Quantity))
			existing.ProductSnapshot = snapshotOf(product)
			_, err = txRepo.UpdateItem(ctx, existing)
			return err
		}

		_, err = txRepo.CreateItem(ctx, &models.CartItem{
			CartID:          cart.ID,
			ProductID:       product.ID,
			Quantity:        quantity,
			Price:           product.Price,
			Subtotal:        product.Price.Mul(decimalFromInt(quantity)),
			ProductSnapshot: snapshotOf(product),
		})
		return err
	}); err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add cart item")
	}

	return s.reload(ctx, owner)
}

// UpdateItem sets the quantity of an existing line. Zero or negative
// quantities remove the line. The snapshot price is kept; only the subtotal
// is recomputed.
func (s *service) UpdateItem(ctx context.Context, owner Owner, itemID uuid.UUID, quantity int) (*CartDTO, error) {
	if !owner.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart owner is required")
	}
	if itemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}
	if quantity <= 0 {
		return s.RemoveItem(ctx, owner, itemID)
	}

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		cart, err := txRepo.FindActiveByOwnerForUpdate(ctx, owner)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
			}
			return err
		}

		item, err := txRepo.FindItem(ctx, cart.ID, itemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
			}
			return err
		}

		product, err := s.products.FindByID(ctx, item.ProductID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}
		if product != nil && !product.Purchasable(quantity) {
			return pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock for product").
				WithDetails(map[string]any{"available_qty": product.AvailableQty})
		}

		item.Quantity = quantity
		item.Subtotal = item.Price.Mul(decimalFromInt(quantity))
		_, err = txRepo.UpdateItem(ctx, item)
		return err
	}); err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
	}

	return s.reload(ctx, owner)
}

// RemoveItem deletes one line from the owner's cart.
func (s *service) RemoveItem(ctx context.Context, owner Owner, itemID uuid.UUID) (*CartDTO, error) {
	if !owner.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart owner is required")
	}
	if itemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		cart, err := txRepo.FindActiveByOwnerForUpdate(ctx, owner)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
			}
			return err
		}

		if _, err := txRepo.FindItem(ctx, cart.ID, itemID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
			}
			return err
		}

		return txRepo.DeleteItem(ctx, cart.ID, itemID)
	}); err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart item")
	}

	return s.reload(ctx, owner)
}

// Clear removes every line from the owner's active cart. Clearing an owner
// with no cart is a no-op and does not create one.
func (s *service) Clear(ctx context.Context, owner Owner) (*CartDTO, error) {
	if !owner.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart owner is required")
	}

	var cart *models.Cart
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		found, err := txRepo.FindActiveByOwnerForUpdate(ctx, owner)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		if err := txRepo.DeleteItems(ctx, found.ID); err != nil {
			return err
		}
		found.Items = nil
		cart = found
		return nil
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}

	if cart == nil {
		return emptyCart(owner), nil
	}
	return FromModel(cart), nil
}

// Merge folds the guest session cart into the user's cart. Each guest line
// keeps its own snapshot price; lines for products already in the user cart
// increment the quantity and are re-priced with the merged-in line's price,
// matching what adding the product would do. The guest cart is marked
// completed, so a replayed merge is a no-op.
func (s *service) Merge(ctx context.Context, userID uuid.UUID, sessionID string) (*CartDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}

	userOwner := UserOwner(userID)

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		guest, err := txRepo.FindActiveByOwnerForUpdate(ctx, SessionOwner(sessionID))
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// nothing to merge
				return nil
			}
			return err
		}

		userCart, err := s.findOrCreate(ctx, txRepo, userOwner)
		if err != nil {
			return err
		}

		for i := range guest.Items {
			guestItem := &guest.Items[i]

			existing, err := txRepo.FindItemByProduct(ctx, userCart.ID, guestItem.ProductID)
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}

			if existing != nil {
				existing.Quantity += guestItem.Quantity
				existing.Price = guestItem.Price
				existing.Subtotal = guestItem.Price.Mul(decimalFromInt(existing.Quantity))
				if guestItem.ProductSnapshot != nil {
					existing.ProductSnapshot = guestItem.ProductSnapshot
				}
				if _, err := txRepo.UpdateItem(ctx, existing); err != nil {
					return err
				}
				continue
			}

			if _, err := txRepo.CreateItem(ctx, &models.CartItem{
				CartID:          userCart.ID,
				ProductID:       guestItem.ProductID,
				Quantity:        guestItem.Quantity,
				Price:           guestItem.Price,
				Subtotal:        guestItem.Price.Mul(decimalFromInt(guestItem.Quantity)),
				ProductSnapshot: guestItem.ProductSnapshot,
			}); err != nil {
				return err
			}
		}

		return txRepo.UpdateStatus(ctx, guest.ID, enums.CartStatusCompleted)
	}); err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "merge carts")
	}

	return s.reload(ctx, userOwner)
}

// findOrCreate locks the owner's active cart, creating a fresh one when none
// exists. The lock serializes concurrent mutations for one owner.
func (s *service) findOrCreate(ctx context.Context, repo CartRepository, owner Owner) (*models.Cart, error) {
	cart, err := repo.FindActiveByOwnerForUpdate(ctx, owner)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return repo.Create(ctx, owner)
}

func (s *service) reload(ctx context.Context, owner Owner) (*CartDTO, error) {
	cart, err := s.repo.FindActiveByOwner(ctx, owner)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload cart")
	}
	return FromModel(cart), nil
}

// emptyCart is the transport shape for an owner that never held a cart.
func emptyCart(owner Owner) *CartDTO {
	return &CartDTO{
		UserID:    owner.UserID(),
		SessionID: owner.SessionID(),
		Status:    enums.CartStatusActive,
		Items:     []CartItemDTO{},
		Subtotal:  decimal.Zero,
	}
}

func snapshotOf(product *models.Product) *types.ProductSnapshot {
	snapshot := &types.ProductSnapshot{
		Name:  product.Name,
		Slug:  product.Slug,
		SKU:   product.SKU,
		Price: product.Price,
	}
	if len(product.Images) > 0 {
		image := product.Images[0]
		snapshot.Image = &image
	}
	return snapshot
}

func decimalFromInt(value int) decimal.Decimal {
	return decimal.NewFromInt(int64(value))
}
