package services

import (
	"context"
	"fmt"
	"net/http"

	"expenser/internal/amqp"
	"expenser/internal/core"
	"expenser/internal/validate"
)

type categoryPayload struct {
	Name        string    `json:"name"`
	Type        core.Kind `json:"type"`
	Description string    `json:"description"`
}

type typePayload struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// typesEnvelope wraps the expense type collection response.
type typesEnvelope struct {
	TransactionTypes []core.TransactionType `json:"transaction_types"`
}

// ListCategories returns all categories, cached under "categories".
func (s *Service) ListCategories(ctx context.Context) ([]core.Category, error) {
	return listCached(ctx, s, KeyCategories, func(ctx context.Context) ([]core.Category, error) {
		return fetchCollection[core.Category](ctx, s, "/category")
	})
}

// CategoriesByKind filters the cached collection client-side.
func (s *Service) CategoriesByKind(ctx context.Context, kind core.Kind) ([]core.Category, error) {
	all, err := s.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	var filtered []core.Category
	for _, c := range all {
		if c.Kind == kind {
			filtered = append(filtered, c)
		}
	}
	return filtered, nil
}

// ListTypes returns all expense types, cached under "types".
func (s *Service) ListTypes(ctx context.Context) ([]core.TransactionType, error) {
	return listCached(ctx, s, KeyTypes, func(ctx context.Context) ([]core.TransactionType, error) {
		resp, err := s.api.Do(ctx, http.MethodGet, "/type", nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTransport, err)
		}
		if !resp.OK() {
			return nil, resp.Err()
		}
		var envelope typesEnvelope
		if err := resp.Decode(&envelope); err != nil {
			return nil, err
		}
		return envelope.TransactionTypes, nil
	})
}

// Category mutations invalidate both "categories" and "expenses": the
// expense table renders category-attributed amounts, so a rename or
// repartition must refetch it too.

func (s *Service) CreateCategory(ctx context.Context, form validate.CategoryForm) error {
	cat, errs := form.Resolve()
	if len(errs) > 0 {
		return errs
	}

	resp, err := s.api.Do(ctx, http.MethodPost, "/category", categoryPayload{
		Name:        cat.Name,
		Type:        cat.Kind,
		Description: cat.Description,
	})
	if err := s.settle(ctx, resp, err, "Category saved", KeyCategories, KeyExpenses); err != nil {
		return err
	}
	s.publish(ctx, s.activity(amqp.ActionCreate, KeyCategories, 0, cat.Name, "", core.Date{}, "form"))
	return nil
}

func (s *Service) UpdateCategory(ctx context.Context, id int64, form validate.CategoryForm) error {
	cat, errs := form.Resolve()
	if len(errs) > 0 {
		return errs
	}

	resp, err := s.api.Do(ctx, http.MethodPut, fmt.Sprintf("/category/%d", id), categoryPayload{
		Name:        cat.Name,
		Type:        cat.Kind,
		Description: cat.Description,
	})
	if err := s.settle(ctx, resp, err, "Category updated", KeyCategories, KeyExpenses); err != nil {
		return err
	}
	s.publish(ctx, s.activity(amqp.ActionUpdate, KeyCategories, id, cat.Name, "", core.Date{}, "form"))
	return nil
}

func (s *Service) DeleteCategory(ctx context.Context, id int64) error {
	resp, err := s.api.Do(ctx, http.MethodDelete, fmt.Sprintf("/category/%d", id), nil)
	if err := s.settle(ctx, resp, err, "Category deleted", KeyCategories, KeyExpenses); err != nil {
		return err
	}
	s.publish(ctx, s.activity(amqp.ActionDelete, KeyCategories, id, "", "", core.Date{}, "form"))
	return nil
}

// Type mutations mirror the category rules for the expense classifier.

func (s *Service) CreateType(ctx context.Context, form validate.TypeForm) error {
	tt, errs := form.Resolve()
	if len(errs) > 0 {
		return errs
	}

	resp, err := s.api.Do(ctx, http.MethodPost, "/type", typePayload{
		Name:        tt.Name,
		Description: tt.Description,
	})
	if err := s.settle(ctx, resp, err, "Type saved", KeyTypes, KeyExpenses); err != nil {
		return err
	}
	s.publish(ctx, s.activity(amqp.ActionCreate, KeyTypes, 0, tt.Name, "", core.Date{}, "form"))
	return nil
}

func (s *Service) UpdateType(ctx context.Context, id int64, form validate.TypeForm) error {
	tt, errs := form.Resolve()
	if len(errs) > 0 {
		return errs
	}

	resp, err := s.api.Do(ctx, http.MethodPut, fmt.Sprintf("/type/%d", id), typePayload{
		Name:        tt.Name,
		Description: tt.Description,
	})
	if err := s.settle(ctx, resp, err, "Type updated", KeyTypes, KeyExpenses); err != nil {
		return err
	}
	s.publish(ctx, s.activity(amqp.ActionUpdate, KeyTypes, id, tt.Name, "", core.Date{}, "form"))
	return nil
}

func (s *Service) DeleteType(ctx context.Context, id int64) error {
	resp, err := s.api.Do(ctx, http.MethodDelete, fmt.Sprintf("/type/%d", id), nil)
	if err := s.settle(ctx, resp, err, "Type deleted", KeyTypes, KeyExpenses); err != nil {
		return err
	}
	s.publish(ctx, s.activity(amqp.ActionDelete, KeyTypes, id, "", "", core.Date{}, "form"))
	return nil
}
