package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"eventdesk/internal/apiclient"
	"eventdesk/internal/events"
	"eventdesk/internal/logging"
	"eventdesk/internal/models"
)

const (
	DefaultSearchDelay = 300 * time.Millisecond

	msgSearchFailed = "Failed to perform search"
	msgInvalidQuery = "Invalid search query"
	msgSearchServer = "Server error occurred while searching"
)

// Searcher is the part of the backend the search store needs.
type Searcher interface {
	Search(ctx context.Context, query string) ([]apiclient.RawSearchResult, error)
}

type SearchOptions struct {
	// Origin is prefixed to relative result URLs.
	Origin string
	// Delay is the debounce window; zero means DefaultSearchDelay.
	Delay time.Duration
	// DiscardStale drops responses that are not for the latest dispatch.
	DiscardStale bool
	Logger       *zap.Logger
}

// SearchService holds the state of one search session. Queries are debounced;
// responses are not cancelled once dispatched.
type SearchService struct {
	backend      Searcher
	origin       string
	discardStale bool
	debouncer    *Debouncer
	log          *zap.Logger

	mu     sync.Mutex
	state  models.SearchState
	seq    uint64
	closed bool

	inflight  sync.WaitGroup
	listeners events.Listeners[models.SearchState]
}

func NewSearchService(backend Searcher, opts SearchOptions) *SearchService {
	delay := opts.Delay
	if delay <= 0 {
		delay = DefaultSearchDelay
	}
	return &SearchService{
		backend:      backend,
		origin:       strings.TrimRight(opts.Origin, "/"),
		discardStale: opts.DiscardStale,
		debouncer:    NewDebouncer(delay),
		log:          logging.OrNop(opts.Logger).Named("search"),
		state:        models.SearchState{Results: []models.SearchResult{}},
	}
}

// Search records query and schedules a dispatch after the debounce window.
// A newer call within the window replaces the pending one.
func (s *SearchService) Search(query string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.state.Query = query
	s.mu.Unlock()
	s.notify()

	s.debouncer.Debounce(func() { s.dispatch(query) })
}

// ClearSearch drops the pending dispatch and resets the session.
func (s *SearchService) ClearSearch() {
	s.debouncer.Cancel()

	s.mu.Lock()
	s.state = models.SearchState{Results: []models.SearchResult{}}
	if s.discardStale {
		s.seq++
	}
	s.mu.Unlock()
	s.notify()
}

func (s *SearchService) State() models.SearchState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *SearchService) Subscribe(fn func(models.SearchState)) (unsubscribe func()) {
	return s.listeners.Add(fn)
}

// Close cancels the pending dispatch and waits for requests already sent.
func (s *SearchService) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.debouncer.Cancel()
	s.inflight.Wait()
}

func (s *SearchService) dispatch(query string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.inflight.Add(1)
	defer s.inflight.Done()
	s.seq++
	seq := s.seq
	s.state.IsSearching = true
	s.state.Error = nil
	s.mu.Unlock()
	s.notify()

	raw, err := s.backend.Search(context.Background(), query)

	s.mu.Lock()
	if s.discardStale && seq != s.seq {
		s.mu.Unlock()
		s.log.Debug("discarding stale search response", zap.String("query", query))
		return
	}
	if err != nil {
		msg := searchErrorMessage(err)
		s.log.Warn("search failed", zap.String("query", query), zap.Error(err))
		s.state.Results = []models.SearchResult{}
		s.state.Error = &msg
	} else {
		s.state.Results = ProcessResults(raw, s.origin)
	}
	s.state.IsSearching = false
	s.mu.Unlock()
	s.notify()
}

func (s *SearchService) snapshotLocked() models.SearchState {
	st := s.state
	st.Results = append([]models.SearchResult{}, s.state.Results...)
	if s.state.Error != nil {
		msg := *s.state.Error
		st.Error = &msg
	}
	return st
}

func (s *SearchService) notify() {
	s.listeners.Notify(s.State())
}

// ProcessResults keeps the valid results, in order, with URLs made absolute.
func ProcessResults(raw []apiclient.RawSearchResult, origin string) []models.SearchResult {
	out := []models.SearchResult{}
	for _, r := range raw {
		res, ok := IsValidResult(r)
		if !ok {
			continue
		}
		res.URL = NormalizeURL(res.URL, origin)
		out = append(out, res)
	}
	return out
}

// IsValidResult requires id, type, title, url and snippet to be non-empty
// strings and type to be event or attendee.
func IsValidResult(r apiclient.RawSearchResult) (models.SearchResult, bool) {
	var fields [5]string
	for i, key := range []string{"id", "type", "title", "url", "snippet"} {
		v, ok := r[key].(string)
		if !ok || v == "" {
			return models.SearchResult{}, false
		}
		fields[i] = v
	}
	t := models.SearchResultType(fields[1])
	if t != models.SearchResultEvent && t != models.SearchResultAttendee {
		return models.SearchResult{}, false
	}
	return models.SearchResult{
		ID:      fields[0],
		Type:    t,
		Title:   fields[2],
		URL:     fields[3],
		Snippet: fields[4],
	}, true
}

// NormalizeURL leaves anything starting with "http" alone and prefixes the
// rest with origin.
func NormalizeURL(url, origin string) string {
	if strings.HasPrefix(url, "http") {
		return url
	}
	return origin + url
}

func searchErrorMessage(err error) string {
	var be *apiclient.BackendError
	if errors.As(err, &be) {
		if be.Message != "" {
			return be.Message
		}
		switch be.StatusCode {
		case http.StatusBadRequest:
			return msgInvalidQuery
		case http.StatusInternalServerError:
			return msgSearchServer
		}
	}
	return msgSearchFailed
}
