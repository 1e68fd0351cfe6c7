package handlers

import (
	"context"
	"net/http"

	"github.com/geocoder89/lostfound/internal/domain/user"
	"github.com/geocoder89/lostfound/internal/http/middlewares"
	"github.com/geocoder89/lostfound/internal/service"
	"github.com/gin-gonic/gin"
)

type AuthService interface {
	Login(ctx context.Context, username, password string) (service.LoginResult, error)
	Register(ctx context.Context, username, password string) (user.Public, error)
}

type AuthHandler struct {
	svc AuthService
}

func NewAuthHandler(svc AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req user.LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	res, err := h.svc.Login(ctx.Request.Context(), req.Username, req.Password)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, res)
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req user.RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	u, err := h.svc.Register(ctx.Request.Context(), req.Username, req.Password)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, u)
}

// Me echoes the verified token identity. The role is what the token asserts,
// which can lag behind the stored role until the token expires.
func (h *AuthHandler) Me(ctx *gin.Context) {
	p := middlewares.PrincipalFromContext(ctx)
	if p == nil {
		RespondUnAuthorized(ctx, "unauthorized", "Authentication required")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"id": p.ID, "role": p.Role})
}
