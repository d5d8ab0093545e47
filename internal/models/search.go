package models

import "strings"

type SearchResultType string

const (
	SearchResultEvent    SearchResultType = "event"
	SearchResultAttendee SearchResultType = "attendee"
)

// SearchResult is a validated search hit. ID is namespaced by type, e.g. "event_12".
type SearchResult struct {
	ID      string           `json:"id"`
	Type    SearchResultType `json:"type"`
	Title   string           `json:"title"`
	URL     string           `json:"url"`
	Snippet string           `json:"snippet"`
}

// SearchState is a snapshot of the search session.
type SearchState struct {
	Query       string         `json:"query"`
	Results     []SearchResult `json:"results"`
	IsSearching bool           `json:"isSearching"`
	Error       *string        `json:"error"`
}

func (s SearchState) HasResults() bool { return len(s.Results) > 0 }

// HasNoResults reports a settled search that produced nothing.
func (s SearchState) HasNoResults() bool {
	return !s.IsSearching && len(s.Results) == 0 && s.Error == nil
}

func (s SearchState) HasError() bool { return s.Error != nil && *s.Error != "" }

// HasActiveSearch reports a non-blank query.
func (s SearchState) HasActiveSearch() bool { return strings.TrimSpace(s.Query) != "" }

func (s SearchState) IsLoading() bool { return s.IsSearching }

func (s SearchState) TotalResults() int { return len(s.Results) }

func (s SearchState) GroupedResults() map[SearchResultType][]SearchResult {
	groups := make(map[SearchResultType][]SearchResult)
	for _, r := range s.Results {
		groups[r.Type] = append(groups[r.Type], r)
	}
	return groups
}

func (s SearchState) EventResults() []SearchResult {
	return s.filter(SearchResultEvent)
}

func (s SearchState) AttendeeResults() []SearchResult {
	return s.filter(SearchResultAttendee)
}

func (s SearchState) filter(t SearchResultType) []SearchResult {
	out := []SearchResult{}
	for _, r := range s.Results {
		if r.Type == t {
			out = append(out, r)
		}
	}
	return out
}
