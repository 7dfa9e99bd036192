package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/foodlink/api/transport"
	"github.com/fastygo/foodlink/domain"
	"github.com/fastygo/foodlink/pkg/httpcontext"
	"github.com/fastygo/foodlink/repository"
	profileUC "github.com/fastygo/foodlink/usecase/profile"
)

type ProfileHandler struct {
	baseHandler
	uc *profileUC.UseCase
}

func NewProfileHandler(uc *profileUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Get profile
// @Tags profile
// @Success 200 {object} transport.Envelope
// @Router /api/v1/profile [get]
func (h *ProfileHandler) GetProfile(ctx *fasthttp.RequestCtx) {
	userID, ok := h.userID(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	user, err := h.uc.GetProfile(stdCtx, userID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, user)
}

// @Summary Update profile
// @Tags profile
// @Accept json
// @Produce json
// @Router /api/v1/profile [put]
func (h *ProfileHandler) UpdateProfile(ctx *fasthttp.RequestCtx) {
	userID, ok := h.userID(ctx)
	if !ok {
		return
	}

	var req transport.ProfileUpdateRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.uc.UpdateProfile(stdCtx, userID, profileUC.Details{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Gender:    req.Gender,
		Address:   req.Address,
		Pincode:   req.Pincode,
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, updated)
}

// @Summary Geocode city and state into the registered location
// @Tags profile
// @Router /api/v1/profile/location [put]
func (h *ProfileHandler) UpdateLocation(ctx *fasthttp.RequestCtx) {
	userID, ok := h.userID(ctx)
	if !ok {
		return
	}

	var req transport.LocationRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.uc.UpdateLocation(stdCtx, userID, req.City, req.State)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, updated)
}

// @Summary List users (admin)
// @Tags admin
// @Router /api/v1/admin/users [get]
func (h *ProfileHandler) ListUsers(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	actor, ok := h.actor(ctx, stdCtx, h.uc)
	if !ok {
		return
	}

	args := ctx.QueryArgs()
	filter := repository.UserFilter{
		Role:         domain.Role(args.Peek("role")),
		Verification: domain.VerificationStatus(args.Peek("status")),
		Limit:        parseInt(string(args.Peek("limit")), 50),
		Offset:       parseInt(string(args.Peek("offset")), 0),
	}

	users, err := h.uc.ListUsers(stdCtx, actor, filter)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondJSON(ctx, http.StatusOK, transport.NewSuccess(users, transport.PageMeta{
		Limit: filter.Limit, Offset: filter.Offset, Count: len(users),
	}))
}

// @Summary Set a user's verification status (admin)
// @Tags admin
// @Router /api/v1/admin/users/{id}/verification [put]
func (h *ProfileHandler) SetVerification(ctx *fasthttp.RequestCtx) {
	var req transport.VerificationRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	actor, ok := h.actor(ctx, stdCtx, h.uc)
	if !ok {
		return
	}

	user, err := h.uc.SetVerification(stdCtx, actor, pathID(ctx), domain.VerificationStatus(req.Status))
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, user)
}
