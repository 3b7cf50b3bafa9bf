package models

// GeoPoint is a GeoJSON point; Coordinates are [longitude, latitude].
type GeoPoint struct {
	Type        string    `json:"type" bson:"type"`
	Coordinates []float64 `json:"coordinates" bson:"coordinates"`
}

func NewGeoPoint(lat, lng float64) *GeoPoint {
	return &GeoPoint{
		Type:        "Point",
		Coordinates: []float64{lng, lat},
	}
}

func (p *GeoPoint) Valid() bool {
	return p != nil && len(p.Coordinates) >= 2
}

func (p *GeoPoint) Latitude() float64 {
	if p.Valid() {
		return p.Coordinates[1]
	}
	return 0
}

func (p *GeoPoint) Longitude() float64 {
	if p.Valid() {
		return p.Coordinates[0]
	}
	return 0
}
