package venuebed

import "math"

// offsetMeters moves (lat, lng) by the given ground distances.
func offsetMeters(lat, lng, north, east float64) (float64, float64) {
	dLat := north / earthRadiusMeters * 180 / math.Pi
	dLng := east / (earthRadiusMeters * math.Cos(lat*math.Pi/180)) * 180 / math.Pi
	return lat + dLat, lng + dLng
}

func venueAt(id, name, source string, lat, lng float64) Venue {
	return Venue{ID: id, Name: name, Source: source, Latitude: lat, Longitude: lng}
}

// venueAddr builds a venue known only by its address.
func venueAddr(id, name, source, address string) Venue {
	return Venue{ID: id, Name: name, Source: source, Address: address, Latitude: math.NaN(), Longitude: math.NaN()}
}

func fptr(f float64) *float64 { return &f }

func iptr(i int) *int { return &i }

func ids(venues []Venue) []string {
	out := make([]string, len(venues))
	for i, v := range venues {
		out[i] = v.ID
	}
	return out
}

func mustEngine(opts ...Option) *Engine {
	e, err := NewEngine(opts...)
	if err != nil {
		panic(err)
	}
	return e
}
