// Package geocode turns free-form addresses into coordinates.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/foodlink/domain"
)

var errNoResults = errors.New("no results")

type NominatimConfig struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
}

// Nominatim queries an OpenStreetMap Nominatim compatible /search endpoint.
type Nominatim struct {
	client *fasthttp.Client
	cfg    NominatimConfig
	logger *zap.Logger
}

func NewNominatim(cfg NominatimConfig, client *fasthttp.Client, logger *zap.Logger) *Nominatim {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://nominatim.openstreetmap.org"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.UserAgent == "" {
		cfg.UserAgent = "foodlink/1.0"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if client == nil {
		client = &fasthttp.Client{
			Name:         cfg.UserAgent,
			ReadTimeout:  cfg.Timeout,
			WriteTimeout: cfg.Timeout,
		}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Nominatim{client: client, cfg: cfg, logger: logger}
}

type place struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

func (n *Nominatim) Geocode(ctx context.Context, address string) (domain.Point, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return domain.Point{}, domain.GeocodeError(address, errors.New("empty address"))
	}

	params := url.Values{}
	params.Set("q", address)
	params.Set("format", "json")
	params.Set("limit", "1")

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(n.cfg.BaseURL + "/search?" + params.Encode())
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.SetUserAgent(n.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")

	timeout := n.cfg.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if err := n.client.DoTimeout(req, resp, timeout); err != nil {
		return domain.Point{}, domain.GeocodeError(address, err)
	}
	if status := resp.StatusCode(); status != fasthttp.StatusOK {
		return domain.Point{}, domain.GeocodeError(address, fmt.Errorf("geocoder responded %d", status))
	}

	var places []place
	if err := json.Unmarshal(resp.Body(), &places); err != nil {
		return domain.Point{}, domain.GeocodeError(address, err)
	}
	if len(places) == 0 {
		return domain.Point{}, domain.GeocodeError(address, errNoResults)
	}

	lat, errLat := strconv.ParseFloat(places[0].Lat, 64)
	lng, errLng := strconv.ParseFloat(places[0].Lon, 64)
	if err := errors.Join(errLat, errLng); err != nil {
		return domain.Point{}, domain.GeocodeError(address, err)
	}
	p, err := domain.NewPoint(lng, lat)
	if err != nil {
		return domain.Point{}, domain.GeocodeError(address, err)
	}

	n.logger.Debug("address geocoded", zap.String("address", address), zap.String("match", places[0].DisplayName))
	return p, nil
}
