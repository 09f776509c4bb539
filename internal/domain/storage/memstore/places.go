package memstore

import (
	"context"
	"math"
	"sort"

	"placereview/internal/domain/places"
)

type placeStore struct{ s *Store }

func clonePlace(p *places.Place) *places.Place {
	c := *p
	c.Images = cloneStrings(p.Images)
	if p.Location != nil {
		c.Location = []float64{p.Location[0], p.Location[1]}
	}
	return &c
}

func (ps placeStore) GetByID(ctx context.Context, id int64) (*places.Place, error) {
	ps.s.mu.RLock()
	defer ps.s.mu.RUnlock()

	p, ok := ps.s.places[id]
	if !ok {
		return nil, places.ErrNotFound
	}
	return clonePlace(p), nil
}

func (ps placeStore) GetByName(ctx context.Context, name string) (*places.Place, error) {
	ps.s.mu.RLock()
	defer ps.s.mu.RUnlock()

	id, ok := ps.s.names[name]
	if !ok {
		return nil, places.ErrNotFound
	}
	return clonePlace(ps.s.places[id]), nil
}

func (ps placeStore) GetForUpdate(ctx context.Context, id int64) (*places.Place, error) {
	return ps.GetByID(ctx, id)
}

func (ps placeStore) Create(ctx context.Context, place *places.Place) error {
	ps.s.mu.Lock()
	defer ps.s.mu.Unlock()

	if _, taken := ps.s.names[place.Name]; taken {
		return places.ErrDuplicateName
	}
	ps.s.placeSeq++
	now := ps.s.now()
	place.ID = ps.s.placeSeq
	place.CreatedAt = now
	place.UpdatedAt = now
	if place.Images == nil {
		place.Images = []string{}
	}

	ps.s.places[place.ID] = clonePlace(place)
	ps.s.names[place.Name] = place.ID
	return nil
}

func (ps placeStore) Update(ctx context.Context, id int64, patch places.Patch) (*places.Place, error) {
	ps.s.mu.Lock()
	defer ps.s.mu.Unlock()

	p, ok := ps.s.places[id]
	if !ok {
		return nil, places.ErrNotFound
	}
	if patch.Empty() {
		return clonePlace(p), nil
	}

	if patch.Name != nil && *patch.Name != p.Name {
		if _, taken := ps.s.names[*patch.Name]; taken {
			return nil, places.ErrDuplicateName
		}
		delete(ps.s.names, p.Name)
		ps.s.names[*patch.Name] = id
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Category != nil {
		p.Category = *patch.Category
	}
	if patch.PriceRange != nil {
		p.PriceRange = *patch.PriceRange
	}
	if patch.City != nil {
		p.City = *patch.City
	}
	if patch.Address != nil {
		p.Address = *patch.Address
	}
	if patch.Location != nil {
		p.Location = []float64{patch.Location[0], patch.Location[1]}
	}
	if patch.Images != nil {
		p.Images = cloneStrings(patch.Images)
	}
	p.UpdatedAt = ps.s.now()
	return clonePlace(p), nil
}

func (ps placeStore) Delete(ctx context.Context, id int64) error {
	ps.s.mu.Lock()
	defer ps.s.mu.Unlock()

	p, ok := ps.s.places[id]
	if !ok {
		return places.ErrNotFound
	}
	delete(ps.s.names, p.Name)
	delete(ps.s.places, id)
	return nil
}

func (ps placeStore) List(ctx context.Context, filter places.Filter) ([]places.Place, int, error) {
	ps.s.mu.RLock()
	var matched []places.Place
	for _, p := range ps.s.places {
		if filter.Category != nil && p.Category != *filter.Category {
			continue
		}
		if filter.PriceRange != nil && p.PriceRange != *filter.PriceRange {
			continue
		}
		matched = append(matched, *clonePlace(p))
	}
	ps.s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if filter.SortByRating && matched[i].OverallRating != matched[j].OverallRating {
			return matched[i].OverallRating > matched[j].OverallRating
		}
		return matched[i].ID < matched[j].ID
	})

	total := len(matched)
	if filter.Limit > 0 {
		start := min(filter.Offset, total)
		end := min(start+filter.Limit, total)
		matched = matched[start:end]
	}
	if matched == nil {
		matched = []places.Place{}
	}
	return matched, total, nil
}

const earthRadiusMeters = 6371000.0

func haversine(lng1, lat1, lng2, lat2 float64) float64 {
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLng := (lng2 - lng1) * rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(a))
}

func (ps placeStore) Near(ctx context.Context, q places.NearQuery) ([]places.Place, error) {
	type hit struct {
		place    places.Place
		distance float64
	}

	ps.s.mu.RLock()
	var hits []hit
	for _, p := range ps.s.places {
		if len(p.Location) != 2 {
			continue
		}
		d := haversine(q.Longitude, q.Latitude, p.Location[0], p.Location[1])
		if d <= q.MaxDistance {
			hits = append(hits, hit{*clonePlace(p), d})
		}
	}
	ps.s.mu.RUnlock()

	sort.Slice(hits, func(i, j int) bool { return hits[i].distance < hits[j].distance })

	limit := q.Limit
	if limit <= 0 {
		limit = 50
	}
	out := []places.Place{}
	for i := 0; i < len(hits) && i < limit; i++ {
		out = append(out, hits[i].place)
	}
	return out, nil
}

func (ps placeStore) SetAggregate(ctx context.Context, id int64, overallRating float64, reviewCount int) error {
	ps.s.mu.Lock()
	defer ps.s.mu.Unlock()

	p, ok := ps.s.places[id]
	if !ok {
		return places.ErrNotFound
	}
	p.OverallRating = overallRating
	p.ReviewCount = reviewCount
	p.UpdatedAt = ps.s.now()
	return nil
}

func (ps placeStore) AddImage(ctx context.Context, id int64, url string) error {
	ps.s.mu.Lock()
	defer ps.s.mu.Unlock()

	p, ok := ps.s.places[id]
	if !ok {
		return places.ErrNotFound
	}
	p.Images = append(p.Images, url)
	return nil
}

func (ps placeStore) RemoveImage(ctx context.Context, id int64, url string) error {
	ps.s.mu.Lock()
	defer ps.s.mu.Unlock()

	p, ok := ps.s.places[id]
	if !ok {
		return places.ErrNotFound
	}
	kept := p.Images[:0]
	for _, img := range p.Images {
		if img != url {
			kept = append(kept, img)
		}
	}
	p.Images = kept
	return nil
}
