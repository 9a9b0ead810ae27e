package airquality

import (
	"time"

	"github.com/paulmach/orb"
)

// Reading is a single sensor's AQI value at a fixed position in the unit square.
// Its identity is its index in the sensor collection.
type Reading struct {
	X   float64 `json:"x" validate:"gte=0,lte=1"`
	Y   float64 `json:"y" validate:"gte=0,lte=1"`
	AQI int     `json:"aqi" validate:"gte=0"`
}

// Point returns the reading's position.
func (r Reading) Point() orb.Point {
	return orb.Point{r.X, r.Y}
}

// InUnitSquare reports whether the reading's position lies in [0,1]x[0,1].
func (r Reading) InUnitSquare() bool {
	return r.X >= 0 && r.X <= 1 && r.Y >= 0 && r.Y <= 1
}

// Snapshot is an immutable view of every sensor at one point in time.
type Snapshot struct {
	Readings   []Reading `json:"sensors"`
	Generation uint64    `json:"generation"`
	UpdatedAt  time.Time `json:"updated_at"` // always UTC
}

// PriorityCell is one ranked grid cell.
type PriorityCell struct {
	Row   int     `json:"row"`
	Col   int     `json:"col"`
	Score float64 `json:"score"`
}

// AQIMatrixResult is an interpolated AQI grid together with the readings it was built from.
type AQIMatrixResult struct {
	Timestamp int64     `json:"timestamp"`
	Sensors   []Reading `json:"sensors"`
	Grid      Grid      `json:"-"`
	Min       float64   `json:"min"`
	Max       float64   `json:"max"`
}

// PopulationResult is a sampled population grid and the dataset it came from.
type PopulationResult struct {
	Timestamp int64  `json:"timestamp"`
	Dataset   string `json:"dataset"`
	Grid      Grid   `json:"-"`
}

// PriorityResult is the ranked zone list for one request.
type PriorityResult struct {
	Timestamp int64          `json:"timestamp"`
	Dataset   string         `json:"dataset"`
	Weights   Weights        `json:"weights"`
	Zones     []PriorityCell `json:"top_zones"`
}
