package shop

// PageSize is the number of rows shown per history page.
const PageSize = 10

// Pager describes one zero-based page over Total rows.
type Pager struct {
	Page  int
	Size  int
	Total int64
}

func (p Pager) Offset() int   { return p.Page * p.Size }
func (p Pager) HasPrev() bool { return p.Page > 0 }
func (p Pager) HasNext() bool { return int64(p.Offset()+p.Size) < p.Total }

// Prev and Next clamp at the edges.
func (p Pager) Prev() Pager {
	if p.HasPrev() {
		p.Page--
	}
	return p
}

func (p Pager) Next() Pager {
	if p.HasNext() {
		p.Page++
	}
	return p
}
