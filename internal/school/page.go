package school

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Page holds normalized pagination parameters. Out-of-range requests are
// clamped, not rejected: the endpoint stays forgiving for clients while
// still bounding server load.
type Page struct {
	Number int
	Size   int
}

// NormalizePage coerces page/pageSize into the safe range. A size above
// the maximum is clamped; size <= 0 falls back to the default; page < 1
// becomes 1 so an offset can never be negative.
func NormalizePage(number, size int) Page {
	if number < 1 {
		number = 1
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return Page{Number: number, Size: size}
}

// Offset returns the row offset for SQL queries.
func (p Page) Offset() int { return (p.Number - 1) * p.Size }

// Pages returns the total page count for a result set of total rows.
func (p Page) Pages(total int) int {
	if total <= 0 {
		return 0
	}
	return (total + p.Size - 1) / p.Size
}
