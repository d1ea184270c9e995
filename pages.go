package main

// PageSeq is the ordered list of pages fetched for one key. Pages are only
// ever appended; nothing is reordered or deduplicated.
type PageSeq struct {
	pages [][]ImageRecord
}

func (s *PageSeq) Append(page []ImageRecord) {
	s.pages = append(s.pages, page)
}

func (s *PageSeq) Len() int {
	return len(s.pages)
}

// NextPage is the upstream page number that follows the loaded pages.
func (s *PageSeq) NextPage() int {
	return len(s.pages) + 1
}

// Pages returns a copy of the page list; the pages themselves are shared and
// must not be modified.
func (s *PageSeq) Pages() [][]ImageRecord {
	out := make([][]ImageRecord, len(s.pages))
	copy(out, s.pages)
	return out
}

// Flatten concatenates all pages in fetch order.
func (s *PageSeq) Flatten() []ImageRecord {
	var n int
	for _, p := range s.pages {
		n += len(p)
	}
	out := make([]ImageRecord, 0, n)
	for _, p := range s.pages {
		out = append(out, p...)
	}
	return out
}

// HasNext reports whether another page may be requested. Unless stopAtLast
// is set and upstream reported a total, pagination never ends once a page has
// loaded.
func (s *PageSeq) HasNext(total int, stopAtLast bool) bool {
	if len(s.pages) == 0 {
		return false
	}
	if stopAtLast && total > 0 {
		return len(s.pages) < total
	}
	return true
}
