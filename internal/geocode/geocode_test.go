package geocode_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"

	"github.com/fastygo/foodlink/domain"
	"github.com/fastygo/foodlink/internal/geocode"
)

func serve(t *testing.T, handler fasthttp.RequestHandler) *fasthttp.Client {
	t.Helper()
	ln := fasthttputil.NewInmemoryListener()
	srv := &fasthttp.Server{Handler: handler}
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() { _ = srv.Shutdown() })
	return &fasthttp.Client{Dial: func(string) (net.Conn, error) { return ln.Dial() }}
}

func TestNominatimGeocode(t *testing.T) {
	var gotQuery, gotAgent string
	client := serve(t, func(ctx *fasthttp.RequestCtx) {
		gotQuery = string(ctx.QueryArgs().Peek("q"))
		gotAgent = string(ctx.UserAgent())
		ctx.SetContentType("application/json")
		if gotQuery == "Pune, Maharashtra" {
			ctx.SetBodyString(`[{"lat":"18.5204","lon":"73.8567","display_name":"Pune"}]`)
			return
		}
		ctx.SetBodyString(`[]`)
	})
	g := geocode.NewNominatim(geocode.NominatimConfig{BaseURL: "http://geo.local/", UserAgent: "foodlink-test", Timeout: time.Second}, client, nil)

	p, err := g.Geocode(context.Background(), "Pune, Maharashtra")
	require.NoError(t, err)
	assert.InDelta(t, 73.8567, p.Longitude, 1e-9)
	assert.InDelta(t, 18.5204, p.Latitude, 1e-9)
	assert.Equal(t, "Pune, Maharashtra", gotQuery)
	assert.Equal(t, "foodlink-test", gotAgent)

	_, err = g.Geocode(context.Background(), "Atlantis")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeGeocode))
}

func TestNominatimUpstreamFailure(t *testing.T) {
	client := serve(t, func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusServiceUnavailable)
	})
	g := geocode.NewNominatim(geocode.NominatimConfig{BaseURL: "http://geo.local"}, client, nil)

	_, err := g.Geocode(context.Background(), "Pune")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeGeocode))

	_, err = g.Geocode(context.Background(), "   ")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeGeocode))
}

func TestStatic(t *testing.T) {
	g, err := geocode.ParseStatic("Pune, Maharashtra=73.8567,18.5204; Mumbai, Maharashtra = 72.8777 , 19.0760")
	require.NoError(t, err)

	p, err := g.Geocode(context.Background(), "  pune,   MAHARASHTRA ")
	require.NoError(t, err)
	assert.Equal(t, domain.Point{Longitude: 73.8567, Latitude: 18.5204}, p)

	_, err = g.Geocode(context.Background(), "Delhi")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeGeocode))

	_, err = geocode.ParseStatic("Nowhere=200,0")
	assert.Error(t, err)
	_, err = geocode.ParseStatic("broken")
	assert.Error(t, err)
}
