package entity

import "fmt"

// IndexEntry is one detected section heading.
type IndexEntry struct {
	Page  int    `json:"page"`
	Title string `json:"title"`
}

// IndexResult is the ordered index for a completed job.
type IndexResult struct {
	Index    []IndexEntry `json:"index"`
	NumPages int          `json:"num_pages"`
}

// Summary is the trailing line rendered under the index table.
func (r IndexResult) Summary() string {
	return fmt.Sprintf("Found %d sections across %d pages", len(r.Index), r.NumPages)
}

// Pages returns the distinct page numbers referenced by the index, in first-seen order.
func (r IndexResult) Pages() []int {
	seen := make(map[int]struct{}, len(r.Index))
	out := make([]int, 0, len(r.Index))
	for _, e := range r.Index {
		if _, ok := seen[e.Page]; ok {
			continue
		}
		seen[e.Page] = struct{}{}
		out = append(out, e.Page)
	}
	return out
}
