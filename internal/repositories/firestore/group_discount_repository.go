package firestore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"

	domain "github.com/bookshelf-ua/api/internal/domain"
	pfirestore "github.com/bookshelf-ua/api/internal/platform/firestore"
	"github.com/bookshelf-ua/api/internal/repositories"
)

// GroupDiscountRepository persists bundles. Each bundle owns a key document in groupDiscountKeys
// whose id is derived from the normalised book-set key, so two bundles can never share a set.
type GroupDiscountRepository struct {
	provider *pfirestore.Provider
}

// NewGroupDiscountRepository constructs a Firestore-backed bundle repository.
func NewGroupDiscountRepository(provider *pfirestore.Provider) (*GroupDiscountRepository, error) {
	if provider == nil {
		return nil, errors.New("group discount repository requires firestore provider")
	}
	return &GroupDiscountRepository{provider: provider}, nil
}

func keyDocumentID(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

func newGroupDiscountDocument(discount domain.GroupDiscount) groupDiscountDocument {
	return groupDiscountDocument{
		Key:       discount.Key,
		Discount:  discount.Discount,
		BookIDs:   append([]string(nil), discount.BookIDs...),
		CreatedAt: discount.CreatedAt.UTC(),
		UpdatedAt: discount.UpdatedAt.UTC(),
	}
}

func (r *GroupDiscountRepository) Insert(ctx context.Context, discount domain.GroupDiscount) error {
	if strings.TrimSpace(discount.ID) == "" || strings.TrimSpace(discount.Key) == "" {
		return errors.New("group discount repository: id and key are required")
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return err
	}
	keyRef := client.Collection(groupDiscountKeysCollection).Doc(keyDocumentID(discount.Key))
	discountRef := client.Collection(groupDiscountsCollection).Doc(discount.ID)

	err = r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if err := r.ensureKeyFree(tx, keyRef, discount.Key, ""); err != nil {
			return err
		}
		if err := tx.Create(keyRef, groupDiscountKeyDocument{GroupDiscountID: discount.ID, Key: discount.Key}); err != nil {
			return err
		}
		return tx.Create(discountRef, newGroupDiscountDocument(discount))
	})
	if err != nil {
		if pfirestore.IsAlreadyExists(err) {
			return repositories.NewGroupDiscountError(repositories.GroupDiscountErrorDuplicate, discount.Key, "group discount with the same books already exists", err)
		}
		return wrapTypedError("groupDiscounts.insert", err)
	}
	return nil
}

// Update rewrites the bundle and moves its key document when the book set changed.
func (r *GroupDiscountRepository) Update(ctx context.Context, discount domain.GroupDiscount) error {
	client, err := r.provider.Client(ctx)
	if err != nil {
		return err
	}
	discountRef := client.Collection(groupDiscountsCollection).Doc(discount.ID)
	newKeyRef := client.Collection(groupDiscountKeysCollection).Doc(keyDocumentID(discount.Key))

	err = r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(discountRef)
		if err != nil {
			if pfirestore.IsNotFound(err) {
				return repositories.NewGroupDiscountError(repositories.GroupDiscountErrorNotFound, discount.Key, fmt.Sprintf("group discount %s not found", discount.ID), err)
			}
			return err
		}
		var current groupDiscountDocument
		if err := snap.DataTo(&current); err != nil {
			return fmt.Errorf("decode group discount %s: %w", discount.ID, err)
		}
		keyChanged := current.Key != discount.Key
		if keyChanged {
			if err := r.ensureKeyFree(tx, newKeyRef, discount.Key, discount.ID); err != nil {
				return err
			}
		}

		discount.CreatedAt = current.CreatedAt
		if err := tx.Set(discountRef, newGroupDiscountDocument(discount)); err != nil {
			return err
		}
		if !keyChanged {
			return nil
		}
		oldKeyRef := client.Collection(groupDiscountKeysCollection).Doc(keyDocumentID(current.Key))
		if err := tx.Delete(oldKeyRef); err != nil {
			return err
		}
		return tx.Set(newKeyRef, groupDiscountKeyDocument{GroupDiscountID: discount.ID, Key: discount.Key})
	})
	if err != nil {
		return wrapTypedError("groupDiscounts.update", err)
	}
	return nil
}

// ensureKeyFree fails with a duplicate error when another bundle owns key.
func (r *GroupDiscountRepository) ensureKeyFree(tx *firestore.Transaction, keyRef *firestore.DocumentRef, key, selfID string) error {
	snap, err := tx.Get(keyRef)
	if err != nil {
		if pfirestore.IsNotFound(err) {
			return nil
		}
		return err
	}
	var owner groupDiscountKeyDocument
	if err := snap.DataTo(&owner); err != nil {
		return fmt.Errorf("decode group discount key: %w", err)
	}
	if selfID != "" && owner.GroupDiscountID == selfID {
		return nil
	}
	return repositories.NewGroupDiscountError(repositories.GroupDiscountErrorDuplicate, key,
		fmt.Sprintf("books already bundled in group discount %s", owner.GroupDiscountID), nil)
}

// Delete removes the bundle together with its key document.
func (r *GroupDiscountRepository) Delete(ctx context.Context, discountID string) error {
	client, err := r.provider.Client(ctx)
	if err != nil {
		return err
	}
	discountRef := client.Collection(groupDiscountsCollection).Doc(discountID)
	err = r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(discountRef)
		if err != nil {
			if pfirestore.IsNotFound(err) {
				return repositories.NewGroupDiscountError(repositories.GroupDiscountErrorNotFound, "", fmt.Sprintf("group discount %s not found", discountID), err)
			}
			return err
		}
		var current groupDiscountDocument
		if err := snap.DataTo(&current); err != nil {
			return fmt.Errorf("decode group discount %s: %w", discountID, err)
		}
		if err := tx.Delete(client.Collection(groupDiscountKeysCollection).Doc(keyDocumentID(current.Key))); err != nil {
			return err
		}
		return tx.Delete(discountRef)
	})
	if err != nil {
		return wrapTypedError("groupDiscounts.delete", err)
	}
	return nil
}

func (r *GroupDiscountRepository) FindByID(ctx context.Context, discountID string) (domain.GroupDiscount, error) {
	coll, err := r.provider.Collection(ctx, groupDiscountsCollection)
	if err != nil {
		return domain.GroupDiscount{}, err
	}
	snap, err := coll.Doc(discountID).Get(ctx)
	if err != nil {
		if pfirestore.IsNotFound(err) {
			return domain.GroupDiscount{}, repositories.NewGroupDiscountError(repositories.GroupDiscountErrorNotFound, "", fmt.Sprintf("group discount %s not found", discountID), err)
		}
		return domain.GroupDiscount{}, pfirestore.WrapError("groupDiscounts.get", err)
	}
	var doc groupDiscountDocument
	if err := snap.DataTo(&doc); err != nil {
		return domain.GroupDiscount{}, fmt.Errorf("decode group discount %s: %w", discountID, err)
	}
	return doc.toDomain(snap.Ref.ID), nil
}

// FindByIDs returns the bundles that exist, in request order.
func (r *GroupDiscountRepository) FindByIDs(ctx context.Context, ids []string) ([]domain.GroupDiscount, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(ids))
	refs := make([]*firestore.DocumentRef, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || strings.TrimSpace(id) == "" {
			continue
		}
		seen[id] = struct{}{}
		refs = append(refs, client.Collection(groupDiscountsCollection).Doc(id))
	}
	snaps, err := client.GetAll(ctx, refs)
	if err != nil {
		return nil, pfirestore.WrapError("groupDiscounts.getAll", err)
	}
	result := make([]domain.GroupDiscount, 0, len(snaps))
	for _, snap := range snaps {
		if !snap.Exists() {
			continue
		}
		var doc groupDiscountDocument
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode group discount %s: %w", snap.Ref.ID, err)
		}
		result = append(result, doc.toDomain(snap.Ref.ID))
	}
	return result, nil
}

func (r *GroupDiscountRepository) List(ctx context.Context) ([]domain.GroupDiscount, error) {
	coll, err := r.provider.Collection(ctx, groupDiscountsCollection)
	if err != nil {
		return nil, err
	}
	docs, err := coll.OrderBy("createdAt", firestore.Desc).Documents(ctx).GetAll()
	if err != nil {
		return nil, pfirestore.WrapError("groupDiscounts.list", err)
	}
	result := make([]domain.GroupDiscount, 0, len(docs))
	for _, snap := range docs {
		var doc groupDiscountDocument
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode group discount %s: %w", snap.Ref.ID, err)
		}
		result = append(result, doc.toDomain(snap.Ref.ID))
	}
	return result, nil
}
