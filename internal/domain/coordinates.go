package domain

import "fmt"

// Immutable geographic coordinates (longitude, latitude).
type Coordinates struct {
	Lon float64
	Lat float64
}

// Return coordinates as [lon, lat] for external API compatibility.
func (c Coordinates) CoordsToList() []float64 { return []float64{c.Lon, c.Lat} }

// Key returns a stable cache/matrix key with 5-decimal precision,
// matching the precision clients are stored with.
func (c Coordinates) Key() string {
	return fmt.Sprintf("%.5f,%.5f", c.Lat, c.Lon)
}

// IsZero reports whether the coordinates are unset. (0, 0) is open
// ocean and never a valid client location for this system.
func (c Coordinates) IsZero() bool { return c.Lat == 0 && c.Lon == 0 }
