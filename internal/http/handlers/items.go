package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/geocoder89/lostfound/internal/apperr"
	"github.com/geocoder89/lostfound/internal/authz"
	"github.com/geocoder89/lostfound/internal/domain/item"
	"github.com/geocoder89/lostfound/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type ItemsService interface {
	List(ctx context.Context, filter item.ListFilter) ([]item.Item, error)
	Get(ctx context.Context, id int64) (item.Item, error)
	Create(ctx context.Context, principal *authz.Principal, req item.CreateItemRequest) (item.Item, error)
	Update(ctx context.Context, principal *authz.Principal, id int64, patch item.Patch) (item.Item, error)
	Delete(ctx context.Context, principal *authz.Principal, id int64) error
}

type ItemsHandler struct {
	svc ItemsService
}

func NewItemsHandler(svc ItemsService) *ItemsHandler {
	return &ItemsHandler{svc: svc}
}

func (h *ItemsHandler) ListItems(ctx *gin.Context) {
	filter, err := parseListFilter(ctx)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	items, err := h.svc.List(ctx.Request.Context(), filter)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, items)
}

func (h *ItemsHandler) GetItem(ctx *gin.Context) {
	id, ok := itemIDParam(ctx)
	if !ok {
		return
	}

	it, err := h.svc.Get(ctx.Request.Context(), id)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, it)
}

func (h *ItemsHandler) CreateItem(ctx *gin.Context) {
	var req item.CreateItemRequest

	if !BindJSON(ctx, &req) {
		return
	}

	it, err := h.svc.Create(ctx.Request.Context(), middlewares.PrincipalFromContext(ctx), req)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.Header("Location", "/items/"+strconv.FormatInt(it.ID, 10))
	ctx.JSON(http.StatusCreated, it)
}

// UpdateItem serves both PUT and PATCH with merge-patch semantics.
func (h *ItemsHandler) UpdateItem(ctx *gin.Context) {
	id, ok := itemIDParam(ctx)
	if !ok {
		return
	}

	var patch item.Patch

	if !BindJSON(ctx, &patch) {
		return
	}

	it, err := h.svc.Update(ctx.Request.Context(), middlewares.PrincipalFromContext(ctx), id, patch)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, it)
}

func (h *ItemsHandler) DeleteItem(ctx *gin.Context) {
	id, ok := itemIDParam(ctx)
	if !ok {
		return
	}

	if err := h.svc.Delete(ctx.Request.Context(), middlewares.PrincipalFromContext(ctx), id); err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

// itemIDParam treats a non-numeric id as an item that does not exist.
func itemIDParam(ctx *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		RespondNotFound(ctx, "Item not found")
		return 0, false
	}
	return id, true
}

func parseListFilter(ctx *gin.Context) (item.ListFilter, error) {
	filter := item.ListFilter{
		Limit:  item.DefaultLimit,
		Offset: 0,
	}

	if raw := strings.TrimSpace(ctx.Query("status")); raw != "" {
		status := item.Status(raw)
		if !status.IsValid() {
			return item.ListFilter{}, apperr.BadRequest("invalid_request", "status must be one of lost, found")
		}
		filter.Status = &status
	}

	if raw := ctx.Query("category"); raw != "" {
		filter.Category = &raw
	}

	if raw := ctx.Query("location"); raw != "" {
		filter.Location = &raw
	}

	if raw := strings.TrimSpace(ctx.Query("date")); raw != "" {
		day, err := item.ParseDate(raw)
		if err != nil {
			return item.ListFilter{}, apperr.BadRequest("invalid_request", err.Error())
		}
		filter.Date = &day
	}

	// absent or unparseable falls back to the default; any integer passes through
	if n, err := strconv.Atoi(ctx.Query("limit")); err == nil {
		filter.Limit = n
	}

	if n, err := strconv.Atoi(ctx.Query("offset")); err == nil {
		filter.Offset = n
	}

	return filter, nil
}
