// Package directory provides a static, order-preserving table of known
// places for nearest-match and substring search. It stands in for a
// geocoding service: coarse coverage of major cities, no network, no
// state.
package directory

import "strings"

// Place is one directory entry: a city with its country, IANA timezone
// and coordinates.
type Place struct {
	Name        string  `json:"name"`
	Country     string  `json:"country"`
	CountryCode string  `json:"countryCode"`
	Timezone    string  `json:"timezone"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
}

// maxSearchResults caps Search output.
const maxSearchResults = 8

// minQueryLength is the threshold below which Search returns nothing.
const minQueryLength = 2

// places is ordered: search results and nearest-match ties preserve
// this order.
var places = []Place{
	// Americas
	{"New York", "United States", "US", "America/New_York", 40.7128, -74.0060},
	{"Los Angeles", "United States", "US", "America/Los_Angeles", 34.0522, -118.2437},
	{"Chicago", "United States", "US", "America/Chicago", 41.8781, -87.6298},
	{"Miami", "United States", "US", "America/New_York", 25.7617, -80.1918},
	{"Toronto", "Canada", "CA", "America/Toronto", 43.6532, -79.3832},
	{"Vancouver", "Canada", "CA", "America/Vancouver", 49.2827, -123.1207},
	{"Mexico City", "Mexico", "MX", "America/Mexico_City", 19.4326, -99.1332},
	{"São Paulo", "Brazil", "BR", "America/Sao_Paulo", -23.5505, -46.6333},
	{"Rio de Janeiro", "Brazil", "BR", "America/Sao_Paulo", -22.9068, -43.1729},
	{"Buenos Aires", "Argentina", "AR", "America/Argentina/Buenos_Aires", -34.6118, -58.3960},
	{"Lima", "Peru", "PE", "America/Lima", -12.0464, -77.0428},
	{"Bogotá", "Colombia", "CO", "America/Bogota", 4.7110, -74.0721},

	// Europe
	{"London", "United Kingdom", "GB", "Europe/London", 51.5074, -0.1278},
	{"Paris", "France", "FR", "Europe/Paris", 48.8566, 2.3522},
	{"Berlin", "Germany", "DE", "Europe/Berlin", 52.5200, 13.4050},
	{"Madrid", "Spain", "ES", "Europe/Madrid", 40.4168, -3.7038},
	{"Rome", "Italy", "IT", "Europe/Rome", 41.9028, 12.4964},
	{"Amsterdam", "Netherlands", "NL", "Europe/Amsterdam", 52.3676, 4.9041},
	{"Stockholm", "Sweden", "SE", "Europe/Stockholm", 59.3293, 18.0686},
	{"Moscow", "Russia", "RU", "Europe/Moscow", 55.7558, 37.6173},
	{"Istanbul", "Turkey", "TR", "Europe/Istanbul", 41.0082, 28.9784},
	{"Athens", "Greece", "GR", "Europe/Athens", 37.9755, 23.7348},
	{"Vienna", "Austria", "AT", "Europe/Vienna", 48.2082, 16.3738},
	{"Prague", "Czech Republic", "CZ", "Europe/Prague", 50.0755, 14.4378},

	// Asia
	{"Tokyo", "Japan", "JP", "Asia/Tokyo", 35.6762, 139.6503},
	{"Seoul", "South Korea", "KR", "Asia/Seoul", 37.5665, 126.9780},
	{"Beijing", "China", "CN", "Asia/Shanghai", 39.9042, 116.4074},
	{"Shanghai", "China", "CN", "Asia/Shanghai", 31.2304, 121.4737},
	{"Hong Kong", "Hong Kong", "HK", "Asia/Hong_Kong", 22.3193, 114.1694},
	{"Singapore", "Singapore", "SG", "Asia/Singapore", 1.3521, 103.8198},
	{"Bangkok", "Thailand", "TH", "Asia/Bangkok", 13.7563, 100.5018},
	{"Mumbai", "India", "IN", "Asia/Kolkata", 19.0760, 72.8777},
	{"Delhi", "India", "IN", "Asia/Kolkata", 28.7041, 77.1025},
	{"Dubai", "United Arab Emirates", "AE", "Asia/Dubai", 25.2048, 55.2708},
	{"Tel Aviv", "Israel", "IL", "Asia/Jerusalem", 32.0853, 34.7818},
	{"Riyadh", "Saudi Arabia", "SA", "Asia/Riyadh", 24.7136, 46.6753},
	{"Jakarta", "Indonesia", "ID", "Asia/Jakarta", -6.2088, 106.8456},
	{"Manila", "Philippines", "PH", "Asia/Manila", 14.5995, 120.9842},

	// Africa
	{"Cairo", "Egypt", "EG", "Africa/Cairo", 30.0444, 31.2357},
	{"Lagos", "Nigeria", "NG", "Africa/Lagos", 6.5244, 3.3792},
	{"Johannesburg", "South Africa", "ZA", "Africa/Johannesburg", -26.2041, 28.0473},
	{"Cape Town", "South Africa", "ZA", "Africa/Johannesburg", -33.9249, 18.4241},
	{"Nairobi", "Kenya", "KE", "Africa/Nairobi", -1.2921, 36.8219},
	{"Casablanca", "Morocco", "MA", "Africa/Casablanca", 33.5731, -7.5898},

	// Oceania
	{"Sydney", "Australia", "AU", "Australia/Sydney", -33.8688, 151.2093},
	{"Melbourne", "Australia", "AU", "Australia/Melbourne", -37.8136, 144.9631},
	{"Perth", "Australia", "AU", "Australia/Perth", -31.9505, 115.8605},
	{"Auckland", "New Zealand", "NZ", "Pacific/Auckland", -36.8485, 174.7633},
	{"Wellington", "New Zealand", "NZ", "Pacific/Auckland", -41.2865, 174.7762},

	// Additional major cities
	{"Zurich", "Switzerland", "CH", "Europe/Zurich", 47.3769, 8.5417},
	{"Oslo", "Norway", "NO", "Europe/Oslo", 59.9139, 10.7522},
	{"Helsinki", "Finland", "FI", "Europe/Helsinki", 60.1699, 24.9384},
	{"Copenhagen", "Denmark", "DK", "Europe/Copenhagen", 55.6761, 12.5683},
	{"Brussels", "Belgium", "BE", "Europe/Brussels", 50.8503, 4.3517},
	{"Lisbon", "Portugal", "PT", "Europe/Lisbon", 38.7223, -9.1393},
	{"Warsaw", "Poland", "PL", "Europe/Warsaw", 52.2297, 21.0122},
	{"Budapest", "Hungary", "HU", "Europe/Budapest", 47.4979, 19.0402},
}

// Nearest returns the directory entry closest to the given coordinates
// by squared Euclidean distance in raw degree space. This is explicitly
// not geodesic distance: it is adequate for snapping a device fix to
// the nearest major city, nothing more. Ties go to the earlier entry.
func Nearest(lat, lon float64) Place {
	best := places[0]
	bestDist := distanceSq(best, lat, lon)

	for _, p := range places[1:] {
		if d := distanceSq(p, lat, lon); d < bestDist {
			best = p
			bestDist = d
		}
	}
	return best
}

func distanceSq(p Place, lat, lon float64) float64 {
	dLat := p.Lat - lat
	dLon := p.Lon - lon
	return dLat*dLat + dLon*dLon
}

// Search returns up to 8 entries whose name or country contains the
// query, case-insensitively, in directory order. Queries shorter than
// two characters return nothing.
func Search(query string) []Place {
	if len(query) < minQueryLength {
		return nil
	}

	q := strings.ToLower(query)
	var results []Place
	for _, p := range places {
		if strings.Contains(strings.ToLower(p.Name), q) || strings.Contains(strings.ToLower(p.Country), q) {
			results = append(results, p)
			if len(results) == maxSearchResults {
				break
			}
		}
	}
	return results
}

// London is the canonical fallback place used when geolocation is
// denied or unavailable.
func London() Place {
	for _, p := range places {
		if p.Name == "London" {
			return p
		}
	}
	return places[0]
}

// All returns the full directory in order.
func All() []Place {
	out := make([]Place, len(places))
	copy(out, places)
	return out
}
