package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/foodlink/api/transport"
	"github.com/fastygo/foodlink/domain"
	"github.com/fastygo/foodlink/pkg/httpcontext"
	"github.com/fastygo/foodlink/usecase"
	donationUC "github.com/fastygo/foodlink/usecase/donation"
)

type DonationHandler struct {
	baseHandler
	uc     *donationUC.UseCase
	actors ActorResolver
	outbox usecase.NotificationOutbox
}

// NewDonationHandler wires the lifecycle endpoints. outbox may be nil, in
// which case failed collection notifications are only reported.
func NewDonationHandler(uc *donationUC.UseCase, actors ActorResolver, outbox usecase.NotificationOutbox, adapter *httpcontext.Adapter, logger *zap.Logger) *DonationHandler {
	return &DonationHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
		actors:      actors,
		outbox:      outbox,
	}
}

// @Summary List surplus food (donor)
// @Tags donations
// @Router /api/v1/donations [post]
func (h *DonationHandler) Create(ctx *fasthttp.RequestCtx) {
	var req transport.DonationRequest
	if !h.decode(ctx, &req) {
		return
	}

	var cookingTime time.Time
	if strings.TrimSpace(req.CookingTime) != "" {
		parsed, err := time.Parse(time.RFC3339, req.CookingTime)
		if err != nil {
			h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "cooking_time must be RFC3339", nil))
			return
		}
		cookingTime = parsed
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	actor, ok := h.actor(ctx, stdCtx, h.actors)
	if !ok {
		return
	}

	created, err := h.uc.Create(stdCtx, actor, donationUC.CreateInput{
		FoodType:        req.FoodType,
		Quantity:        req.Quantity,
		CookingTime:     cookingTime,
		Address:         req.Address,
		City:            req.City,
		State:           req.State,
		Pincode:         req.Pincode,
		Phone:           req.Phone,
		DonorToAdminMsg: req.DonorToAdminMsg,
		PhotoPath:       req.PhotoPath,
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, created)
}

// @Summary List donations for one of the caller's views
// @Tags donations
// @Router /api/v1/donations [get]
func (h *DonationHandler) List(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	actor, ok := h.actor(ctx, stdCtx, h.actors)
	if !ok {
		return
	}

	args := ctx.QueryArgs()
	view := donationUC.View(args.Peek("view"))
	if view == "" {
		view = donationUC.ViewHistory
	}
	page := donationUC.Page{
		Limit:  parseInt(string(args.Peek("limit")), 50),
		Offset: parseInt(string(args.Peek("offset")), 0),
	}

	items, err := h.uc.List(stdCtx, actor, view, page)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondJSON(ctx, http.StatusOK, transport.NewSuccess(items, transport.PageMeta{
		Limit: page.Limit, Offset: page.Offset, Count: len(items),
	}))
}

// @Summary Get a donation with its donor and agent
// @Tags donations
// @Router /api/v1/donations/{id} [get]
func (h *DonationHandler) Get(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	actor, ok := h.actor(ctx, stdCtx, h.actors)
	if !ok {
		return
	}

	view, err := h.uc.Get(stdCtx, actor, pathID(ctx))
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, view)
}

// @Summary Request a pending donation (agent)
// @Tags donations
// @Router /api/v1/donations/{id}/request [post]
func (h *DonationHandler) Request(ctx *fasthttp.RequestCtx) {
	h.transition(ctx, h.uc.Request)
}

// @Summary Accept an agent's request (donor)
// @Tags donations
// @Router /api/v1/donations/{id}/accept [post]
func (h *DonationHandler) Accept(ctx *fasthttp.RequestCtx) {
	h.transition(ctx, h.uc.Accept)
}

// @Summary Reject an agent's request (donor)
// @Tags donations
// @Router /api/v1/donations/{id}/reject [post]
func (h *DonationHandler) Reject(ctx *fasthttp.RequestCtx) {
	h.transition(ctx, h.uc.Reject)
}

// @Summary Dismiss the feedback prompt
// @Tags donations
// @Router /api/v1/donations/{id}/feedback/dismiss [post]
func (h *DonationHandler) DismissFeedback(ctx *fasthttp.RequestCtx) {
	h.transition(ctx, h.uc.DismissFeedback)
}

// @Summary Mark an assigned donation collected (agent)
// @Tags donations
// @Router /api/v1/donations/{id}/collect [post]
func (h *DonationHandler) Collect(ctx *fasthttp.RequestCtx) {
	var req transport.CollectRequest
	if len(ctx.PostBody()) > 0 && !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	actor, ok := h.actor(ctx, stdCtx, h.actors)
	if !ok {
		return
	}

	result, err := h.uc.Collect(stdCtx, actor, pathID(ctx), req.Checklist)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	resp := transport.CollectResponse{
		Donation:     result.Donation,
		Notification: transport.NotificationStatus{Delivered: result.Notification.Delivered},
	}
	if cause := result.Notification.Err; cause != nil {
		resp.Notification.Error = cause.Error()
		if h.outbox != nil && result.Record.DonationID != "" {
			if err := h.outbox.ParkCollection(stdCtx, result.Record, cause); err != nil {
				h.log(stdCtx).Error("failed to park collection notification",
					zap.String("donation_id", result.Record.DonationID),
					zap.Error(err))
			} else {
				resp.Notification.Parked = true
			}
		}
	}
	h.respondSuccess(ctx, http.StatusOK, resp)
}

// @Summary Rate a collected donation (donor, once)
// @Tags donations
// @Router /api/v1/donations/{id}/feedback [post]
func (h *DonationHandler) SubmitFeedback(ctx *fasthttp.RequestCtx) {
	h.review(ctx, h.uc.SubmitFeedback)
}

// @Summary Rate the donor of a collected donation (collecting agent, once)
// @Tags donations
// @Router /api/v1/donations/{id}/rate-donor [post]
func (h *DonationHandler) RateDonor(ctx *fasthttp.RequestCtx) {
	h.review(ctx, h.uc.RateDonor)
}

type reviewFunc func(context.Context, domain.Actor, string, domain.Feedback) (*domain.Donation, error)

func (h *DonationHandler) review(ctx *fasthttp.RequestCtx, fn reviewFunc) {
	var req transport.FeedbackRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	actor, ok := h.actor(ctx, stdCtx, h.actors)
	if !ok {
		return
	}

	updated, err := fn(stdCtx, actor, pathID(ctx), domain.Feedback{Rating: req.Rating, Comments: req.Comments})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, updated)
}

// @Summary Delete a claimed or rejected donation
// @Tags donations
// @Router /api/v1/donations/{id} [delete]
func (h *DonationHandler) Delete(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	actor, ok := h.actor(ctx, stdCtx, h.actors)
	if !ok {
		return
	}

	if err := h.uc.DeleteRejected(stdCtx, actor, pathID(ctx)); err != nil {
		h.respondError(ctx, err)
		return
	}
	ctx.SetStatusCode(http.StatusNoContent)
}

// @Summary Per-status counts for the caller
// @Tags donations
// @Router /api/v1/dashboard [get]
func (h *DonationHandler) Dashboard(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	actor, ok := h.actor(ctx, stdCtx, h.actors)
	if !ok {
		return
	}

	counts, err := h.uc.Dashboard(stdCtx, actor)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, counts)
}

type transitionFunc func(ctx context.Context, actor domain.Actor, id string) (*domain.Donation, error)

func (h *DonationHandler) transition(ctx *fasthttp.RequestCtx, fn transitionFunc) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	actor, ok := h.actor(ctx, stdCtx, h.actors)
	if !ok {
		return
	}

	updated, err := fn(stdCtx, actor, pathID(ctx))
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, updated)
}
