package services

import (
	"context"
	"errors"
	"strings"

	"ledger/internal/amqp"
	"ledger/internal/core"
	"ledger/internal/filter"
	"ledger/internal/log"
	"ledger/internal/store"
)

// CategoryService manages a user's income and expense categories.
type CategoryService struct {
	base
}

func NewCategoryService(st store.Store, opts ...Option) *CategoryService {
	return &CategoryService{base: newBase(st, log.ComponentCategory, opts)}
}

// Create stores a category whose (name, type) is unused by this user.
func (s *CategoryService) Create(ctx context.Context, user core.UserID, in *core.CategoryInput) (core.Category, error) {
	if in == nil {
		return core.Category{}, core.Validation("Category data cannot be null")
	}
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return core.Category{}, core.Validation("Category name cannot be empty")
	}
	typ, err := categoryType(in.Type)
	if err != nil {
		return core.Category{}, err
	}
	name := strings.TrimSpace(*in.Name)
	const failMsg = "Failed to create category"

	cats := s.store.Categories()
	exists, err := cats.ExistsByNameAndType(ctx, user, name, typ)
	if err != nil {
		err = core.Unexpected(failMsg, err)
		s.logUnexpected(ctx, log.OpCreate, user, err)
		return core.Category{}, err
	}
	if exists {
		return core.Category{}, core.Validation("Category with this name already exists")
	}

	now := s.now().UTC()
	cat := core.Category{UserID: user, Name: name, Type: typ, CreatedAt: now, UpdatedAt: now}
	if in.Icon != nil {
		cat.Icon = *in.Icon
	}
	saved, err := cats.Save(ctx, cat)
	if err != nil {
		err = core.Unexpected(failMsg, err)
		s.logUnexpected(ctx, log.OpCreate, user, err)
		return core.Category{}, err
	}

	s.logger.InfoContext(ctx, "Category created",
		log.FieldOperation, log.OpCreate,
		log.FieldUserID, int64(user),
		log.FieldCategoryID, saved.ID,
		log.FieldKind, string(saved.Type))
	s.publish(ctx, amqp.NewCategoryEvent(amqp.ActionCreated, saved))
	return saved, nil
}

// Update applies the non-nil fields of in to the user's category id.
func (s *CategoryService) Update(ctx context.Context, user core.UserID, id int64, in *core.CategoryInput) (core.Category, error) {
	if in == nil {
		return core.Category{}, core.Validation("Category data cannot be null")
	}
	const failMsg = "Failed to update category"
	cats := s.store.Categories()

	existing, err := cats.FindByIDForUser(ctx, user, id)
	if errors.Is(err, store.ErrNotFound) {
		return core.Category{}, core.NotFound("Category not found or not accessible")
	}
	if err != nil {
		err = core.Unexpected(failMsg, err)
		s.logUnexpected(ctx, log.OpUpdate, user, err)
		return core.Category{}, err
	}

	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return core.Category{}, core.Validation("Category name cannot be empty")
	}

	merged := existing
	if in.Name != nil {
		merged.Name = strings.TrimSpace(*in.Name)
	}
	if in.Type != nil {
		if merged.Type, err = categoryType(in.Type); err != nil {
			return core.Category{}, err
		}
	}
	if in.Icon != nil {
		merged.Icon = *in.Icon
	}

	dup, err := cats.ExistsByNameTypeIconExcluding(ctx, user, merged.Name, merged.Type, merged.Icon, id)
	if err != nil {
		err = core.Unexpected(failMsg, err)
		s.logUnexpected(ctx, log.OpUpdate, user, err)
		return core.Category{}, err
	}
	if dup {
		return core.Category{}, core.Validation("Category with this name and type already exists")
	}

	if in.Name != nil {
		taken, err := cats.ExistsByNameExcluding(ctx, user, merged.Name, id)
		if err != nil {
			err = core.Unexpected(failMsg, err)
			s.logUnexpected(ctx, log.OpUpdate, user, err)
			return core.Category{}, err
		}
		if taken {
			return core.Category{}, core.Validation("Category name already exists")
		}
	}

	if merged.Name == existing.Name && merged.Type == existing.Type && merged.Icon == existing.Icon {
		return core.Category{}, core.Validation("No changes detected in the category")
	}

	merged.UpdatedAt = s.now().UTC()
	saved, err := cats.Save(ctx, merged)
	if err != nil {
		err = core.Unexpected(failMsg, err)
		s.logUnexpected(ctx, log.OpUpdate, user, err)
		return core.Category{}, err
	}

	s.logger.InfoContext(ctx, "Category updated",
		log.FieldOperation, log.OpUpdate,
		log.FieldUserID, int64(user),
		log.FieldCategoryID, saved.ID)
	s.publish(ctx, amqp.NewCategoryEvent(amqp.ActionUpdated, saved))
	return saved, nil
}

// List returns all of the user's categories.
func (s *CategoryService) List(ctx context.Context, user core.UserID) ([]core.Category, error) {
	cats, err := s.store.Categories().FindAllForUser(ctx, user)
	if err != nil {
		err = core.Unexpected("Failed to get categories", err)
		s.logUnexpected(ctx, log.OpList, user, err)
		return nil, err
	}
	return cats, nil
}

// ListByType returns the user's categories of one type. An empty result is
// reported as not found.
func (s *CategoryService) ListByType(ctx context.Context, user core.UserID, typ string) ([]core.Category, error) {
	t, ok := core.ParseTransactionType(typ)
	if !ok {
		return nil, core.Validation(filter.InvalidTypeMessage)
	}
	cats, err := s.store.Categories().FindByTypeForUser(ctx, user, t)
	if err != nil {
		err = core.Unexpected("Failed to get categories", err)
		s.logUnexpected(ctx, log.OpList, user, err)
		return nil, err
	}
	if len(cats) == 0 {
		return nil, core.NotFound("No categories found for type: " + typ)
	}
	return cats, nil
}

// Delete removes the user's category. Records that referenced it keep the
// dangling id and show no category name.
func (s *CategoryService) Delete(ctx context.Context, user core.UserID, id int64) error {
	const failMsg = "Failed to delete category"
	cats := s.store.Categories()

	existing, err := cats.FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return core.NotFound("Category not found")
	}
	if err != nil {
		err = core.Unexpected(failMsg, err)
		s.logUnexpected(ctx, log.OpDelete, user, err)
		return err
	}
	if existing.UserID != user {
		return core.Unauthorized("Unauthorized to delete this category")
	}

	if err := cats.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return core.NotFound("Category not found")
		}
		err = core.Unexpected(failMsg, err)
		s.logUnexpected(ctx, log.OpDelete, user, err)
		return err
	}

	s.logger.InfoContext(ctx, "Category deleted",
		log.FieldOperation, log.OpDelete,
		log.FieldUserID, int64(user),
		log.FieldCategoryID, id)
	s.publish(ctx, amqp.NewCategoryEvent(amqp.ActionDeleted, existing))
	return nil
}

func categoryType(raw *string) (core.TransactionType, error) {
	if raw == nil {
		return "", core.Validation("Category type must be 'income' or 'expense'")
	}
	t, ok := core.ParseTransactionType(strings.TrimSpace(*raw))
	if !ok {
		return "", core.Validation("Category type must be 'income' or 'expense'")
	}
	return t, nil
}
