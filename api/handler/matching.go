package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/foodlink/api/transport"
	"github.com/fastygo/foodlink/pkg/httpcontext"
	matchingUC "github.com/fastygo/foodlink/usecase/matching"
)

type MatchingHandler struct {
	baseHandler
	uc     *matchingUC.UseCase
	actors ActorResolver
}

func NewMatchingHandler(uc *matchingUC.UseCase, actors ActorResolver, adapter *httpcontext.Adapter, logger *zap.Logger) *MatchingHandler {
	return &MatchingHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
		actors:      actors,
	}
}

// @Summary Donations near the agent's registered location
// @Tags matching
// @Param radius query number false "radius in meters"
// @Param limit query int false "max results"
// @Router /api/v1/matches [get]
func (h *MatchingHandler) Nearby(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	actor, ok := h.actor(ctx, stdCtx, h.actors)
	if !ok {
		return
	}

	args := ctx.QueryArgs()
	q := matchingUC.Query{
		RadiusMeters: parseFloat(string(args.Peek("radius")), 0),
		Limit:        parseInt(string(args.Peek("limit")), 0),
	}

	items, err := h.uc.Nearby(stdCtx, actor, q)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondJSON(ctx, http.StatusOK, transport.NewSuccess(items, map[string]interface{}{
		"count": len(items),
	}))
}
