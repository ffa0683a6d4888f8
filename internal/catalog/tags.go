package catalog

import (
	"context"

	"github.com/GerlachSG/Cruciflix/internal/cache"
	"github.com/GerlachSG/Cruciflix/internal/docstore"
	"github.com/GerlachSG/Cruciflix/internal/domain"
)

// TagByID reads a tag directly from the store (never cached)
func (s *Service) TagByID(ctx context.Context, id string) (*domain.Tag, error) {
	return getByID[domain.Tag](ctx, s, docstore.CollectionTags, id)
}

// CreateTag stores a new tag unless one with the same name exists.
// The lookup and the insert are separate operations, so two concurrent
// creates of the same name can both succeed.
func (s *Service) CreateTag(ctx context.Context, t domain.Tag) domain.Result {
	if err := t.Validate(); err != nil {
		return domain.Failed(err)
	}

	existing, err := s.store.Find(ctx, docstore.Collection(docstore.CollectionTags).
		Where("name", docstore.OpEqual, t.Name).
		Limit(1))
	if err != nil {
		s.logger.Error("failed to check tag name", "name", t.Name, "error", err)
		return domain.Failed(err)
	}
	if len(existing) > 0 {
		return domain.Failed(domain.ErrTagExists)
	}

	t.ID = ""
	if t.Color == "" {
		t.Color = domain.DefaultTagColor
	}
	if t.Category == "" {
		t.Category = domain.DefaultCategory
	}
	t.CreatedAt = s.nowMillis()
	t.UpdatedAt = 0

	return s.add(ctx, docstore.CollectionTags, cache.KeyTags, t)
}

// AddTag creates a tag with the default color
func (s *Service) AddTag(ctx context.Context, name, category string) domain.Result {
	return s.CreateTag(ctx, domain.Tag{Name: name, Category: category})
}

// UpdateTag merges fields into an existing tag
func (s *Service) UpdateTag(ctx context.Context, id string, fields domain.Fields) domain.Result {
	return s.update(ctx, docstore.CollectionTags, cache.KeyTags, id, fields, "name")
}

// DeleteTag removes a tag. Content still referencing the name is untouched.
func (s *Service) DeleteTag(ctx context.Context, id string) domain.Result {
	return s.remove(ctx, docstore.CollectionTags, cache.KeyTags, id)
}
