package domain

// Coordinate represents a geographic coordinate (WGS 84) in decimal degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether the coordinate lies within usable
// latitude/longitude ranges.
func (c Coordinate) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// Bounds represents a geographic bounding box around a route.
type Bounds struct {
	Northeast Coordinate `json:"northeast"`
	Southwest Coordinate `json:"southwest"`
	Center    Coordinate `json:"center"`
}
