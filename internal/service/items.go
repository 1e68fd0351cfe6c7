// Package service runs the request pipelines: identity, authorization, validation, then storage.
// Every step returns early with an *apperr.Error.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/geocoder89/lostfound/internal/actorctx"
	"github.com/geocoder89/lostfound/internal/apperr"
	"github.com/geocoder89/lostfound/internal/authz"
	"github.com/geocoder89/lostfound/internal/cache"
	"github.com/geocoder89/lostfound/internal/config"
	"github.com/geocoder89/lostfound/internal/domain/item"
	"github.com/geocoder89/lostfound/internal/observability"
	"github.com/geocoder89/lostfound/internal/utils"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const storeTimeout = 3 * time.Second

type ItemStore interface {
	List(ctx context.Context, filter item.ListFilter) ([]item.Item, error)
	GetByID(ctx context.Context, id int64) (item.Item, error)
	Create(ctx context.Context, n item.NewItem) (int64, error)
	Update(ctx context.Context, id int64, patch item.Patch) (item.Item, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

type ItemsService struct {
	store   ItemStore
	cache   cache.ListCache
	metrics *observability.Prom
	tracer  trace.Tracer
}

func NewItemsService(store ItemStore, listCache cache.ListCache, metrics *observability.Prom) *ItemsService {
	if listCache == nil {
		listCache = cache.Noop{}
	}

	return &ItemsService{
		store:   store,
		cache:   listCache,
		metrics: metrics,
		tracer:  otel.Tracer("lostfound/service"),
	}
}

var errItemNotFound = apperr.NotFound("not_found", "Item not found")

func (s *ItemsService) List(ctx context.Context, filter item.ListFilter) ([]item.Item, error) {
	ctx, span := s.tracer.Start(ctx, "items.list")
	defer span.End()

	if !s.decide(authz.ActionRead, actorctx.PrincipalFrom(ctx), nil) {
		return nil, errForbidden
	}

	key := utils.BuildItemsListCacheKey(filter)

	cached, version, ok := s.cache.Get(ctx, key)
	if ok {
		s.metrics.ObserveCache(true)
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return cached, nil
	}
	s.metrics.ObserveCache(false)

	cctx, cancel := config.WithTimeout(ctx, storeTimeout)
	defer cancel()

	items, err := s.store.List(cctx, filter)
	if err != nil {
		return nil, s.internal(ctx, "listing items", err)
	}

	// dropped by the cache if a mutation invalidated it during the read
	s.cache.Set(ctx, version, items)

	return items, nil
}

func (s *ItemsService) Get(ctx context.Context, id int64) (item.Item, error) {
	ctx, span := s.tracer.Start(ctx, "items.get", trace.WithAttributes(attribute.Int64("item.id", id)))
	defer span.End()

	if !s.decide(authz.ActionRead, actorctx.PrincipalFrom(ctx), nil) {
		return item.Item{}, errForbidden
	}

	return s.load(ctx, id)
}

func (s *ItemsService) Create(ctx context.Context, principal *authz.Principal, req item.CreateItemRequest) (item.Item, error) {
	ctx, span := s.tracer.Start(ctx, "items.create")
	defer span.End()

	if principal == nil {
		return item.Item{}, errMissingIdentity
	}

	if !s.decide(authz.ActionCreate, principal, nil) {
		return item.Item{}, errForbidden
	}

	if strings.TrimSpace(req.Title) == "" {
		return item.Item{}, apperr.BadRequest("invalid_request", "title is required")
	}

	if !req.Status.IsValid() {
		return item.Item{}, apperr.BadRequest("invalid_request", "status must be one of lost, found")
	}

	if req.Date != nil {
		if err := item.ValidateDate(req.Date.Time); err != nil {
			return item.Item{}, apperr.BadRequest("invalid_request", err.Error())
		}
	}

	cctx, cancel := config.WithTimeout(ctx, storeTimeout)
	defer cancel()

	id, err := s.store.Create(cctx, req.ToNewItem(principal.ID))
	if err != nil {
		return item.Item{}, s.internal(ctx, "creating item", err)
	}

	s.cache.Invalidate(ctx)
	span.SetAttributes(attribute.Int64("item.id", id))

	return s.load(ctx, id)
}

func (s *ItemsService) Update(ctx context.Context, principal *authz.Principal, id int64, patch item.Patch) (item.Item, error) {
	ctx, span := s.tracer.Start(ctx, "items.update", trace.WithAttributes(attribute.Int64("item.id", id)))
	defer span.End()

	if principal == nil {
		return item.Item{}, errMissingIdentity
	}

	current, err := s.load(ctx, id)
	if err != nil {
		return item.Item{}, err
	}

	if !s.decide(authz.ActionUpdate, principal, &authz.Resource{OwnerID: current.UserID}) {
		return item.Item{}, errForbidden
	}

	if err := patch.Validate(); err != nil {
		return item.Item{}, apperr.BadRequest("invalid_request", err.Error())
	}

	cctx, cancel := config.WithTimeout(ctx, storeTimeout)
	defer cancel()

	updated, err := s.store.Update(cctx, id, patch)
	if errors.Is(err, item.ErrNotFound) {
		// removed between load and write
		return item.Item{}, errItemNotFound
	}
	if err != nil {
		return item.Item{}, s.internal(ctx, "updating item", err)
	}

	if !patch.IsEmpty() {
		s.cache.Invalidate(ctx)
	}

	return updated, nil
}

// Delete requires admin. Authorization is decided before the item is loaded, so
// non-admins get Forbidden whether or not the id exists.
func (s *ItemsService) Delete(ctx context.Context, principal *authz.Principal, id int64) error {
	ctx, span := s.tracer.Start(ctx, "items.delete", trace.WithAttributes(attribute.Int64("item.id", id)))
	defer span.End()

	if principal == nil {
		return errMissingIdentity
	}

	if !s.decide(authz.ActionDelete, principal, nil) {
		return errForbidden
	}

	if _, err := s.load(ctx, id); err != nil {
		return err
	}

	cctx, cancel := config.WithTimeout(ctx, storeTimeout)
	defer cancel()

	deleted, err := s.store.Delete(cctx, id)
	if err != nil {
		return s.internal(ctx, "deleting item", err)
	}

	if !deleted {
		return errItemNotFound
	}

	s.cache.Invalidate(ctx)

	return nil
}

func (s *ItemsService) load(ctx context.Context, id int64) (item.Item, error) {
	cctx, cancel := config.WithTimeout(ctx, storeTimeout)
	defer cancel()

	it, err := s.store.GetByID(cctx, id)
	if errors.Is(err, item.ErrNotFound) {
		return item.Item{}, errItemNotFound
	}
	if err != nil {
		return item.Item{}, s.internal(ctx, "loading item", err)
	}

	return it, nil
}

func (s *ItemsService) decide(action authz.Action, principal *authz.Principal, resource *authz.Resource) bool {
	allowed := authz.Decide(action, principal, resource) == authz.Allow
	s.metrics.ObserveDecision(string(action), allowed)
	return allowed
}

func (s *ItemsService) internal(ctx context.Context, op string, err error) error {
	attrs := []any{"err", err}
	if p := actorctx.PrincipalFrom(ctx); p != nil {
		attrs = append(attrs, "user_id", p.ID)
	}

	slog.ErrorContext(ctx, op+" failed", attrs...)
	trace.SpanFromContext(ctx).RecordError(err)
	return apperr.Internal(err)
}
