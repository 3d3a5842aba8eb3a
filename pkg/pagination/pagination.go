package pagination

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 50
	// MaxLimit caps how many rows a list query can request.
	MaxLimit = 200
)

// Params holds offset pagination inputs from controllers or services.
type Params struct {
	Limit  int
	Offset int
}

// Bounds describes the default and maximum page size of one listing.
type Bounds struct {
	Default int
	Max     int
}

// Standard are the bounds used by merchant, offer, user and redemption lists.
var Standard = Bounds{Default: DefaultLimit, Max: MaxLimit}

// Limit enforces the default and maximum page size.
func (b Bounds) Limit(limit int) int {
	if limit <= 0 {
		return b.Default
	}
	if b.Max > 0 && limit > b.Max {
		return b.Max
	}
	return limit
}

// Normalize returns params with the limit clamped and a non-negative offset.
func (b Bounds) Normalize(p Params) Params {
	offset := p.Offset
	if offset < 0 {
		offset = 0
	}
	return Params{Limit: b.Limit(p.Limit), Offset: offset}
}

// NormalizeLimit applies the standard bounds.
func NormalizeLimit(limit int) int {
	return Standard.Limit(limit)
}
