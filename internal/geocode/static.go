package geocode

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/fastygo/foodlink/domain"
)

// Static resolves addresses from a fixed table. Lookups ignore case and
// surrounding whitespace. Used for development and tests.
type Static struct {
	places map[string]domain.Point
}

func NewStatic(places map[string]domain.Point) *Static {
	s := &Static{places: make(map[string]domain.Point, len(places))}
	for k, v := range places {
		s.places[normalize(k)] = v
	}
	return s
}

// ParseStatic reads entries of the form "Pune, Maharashtra=73.8567,18.5204"
// separated by ';'.
func ParseStatic(table string) (*Static, error) {
	places := map[string]domain.Point{}
	for _, entry := range strings.Split(table, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, coords, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("geocode entry %q: missing '='", entry)
		}
		lngStr, latStr, ok := strings.Cut(coords, ",")
		if !ok {
			return nil, fmt.Errorf("geocode entry %q: want lng,lat", entry)
		}
		lng, errLng := strconv.ParseFloat(strings.TrimSpace(lngStr), 64)
		lat, errLat := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
		if err := errors.Join(errLng, errLat); err != nil {
			return nil, fmt.Errorf("geocode entry %q: %w", entry, err)
		}
		p, err := domain.NewPoint(lng, lat)
		if err != nil {
			return nil, fmt.Errorf("geocode entry %q: %w", entry, err)
		}
		places[name] = p
	}
	return NewStatic(places), nil
}

func (s *Static) Geocode(_ context.Context, address string) (domain.Point, error) {
	p, ok := s.places[normalize(address)]
	if !ok {
		return domain.Point{}, domain.GeocodeError(address, errNoResults)
	}
	return p, nil
}

func normalize(address string) string {
	return strings.ToLower(strings.Join(strings.Fields(address), " "))
}
