package chunk

// Record is one qualifying grid cell: its category, its geographic
// position, and the year it was observed. Immutable once created.
type Record struct {
	Year      int
	Code      int
	Longitude float64
	Latitude  float64
	Label     string
}
