package tasks

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/ispot/internal/models"
	"github.com/desertthunder/ispot/internal/services"
	"github.com/desertthunder/ispot/internal/shared"
)

// TrackQuery holds the fields used to build an exact-match search. Empty fields are omitted.
type TrackQuery struct {
	Name   string
	Artist string
	Album  string
}

// QueryFor builds the query for a local track.
func QueryFor(t models.LocalTrack) TrackQuery {
	return TrackQuery{Name: t.Name, Artist: t.Artist, Album: t.Album}
}

// BuildQuery renders name, then " artist:<v>", then " album:<v>".
// Values are inserted verbatim; Spotify field filters are not quoted or escaped.
func BuildQuery(q TrackQuery) string {
	var b strings.Builder
	b.WriteString(q.Name)
	if q.Artist != "" {
		b.WriteString(" artist:")
		b.WriteString(q.Artist)
	}
	if q.Album != "" {
		b.WriteString(" album:")
		b.WriteString(q.Album)
	}
	return b.String()
}

// OutcomeKind classifies a search by the remote total.
type OutcomeKind int

const (
	OutcomeNoResults OutcomeKind = iota
	OutcomeMatched
	OutcomeAmbiguous
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeNoResults:
		return "no_results"
	case OutcomeMatched:
		return "matched"
	case OutcomeAmbiguous:
		return "ambiguous"
	default:
		return ""
	}
}

// SearchOutcome is the result of one exact-match search.
// Track is set only for OutcomeMatched; Count is the remote total.
type SearchOutcome struct {
	Kind  OutcomeKind
	Track *models.RemoteTrack
	Count int
}

// Classify maps a reported total onto an outcome. A total of one with no items returned is a
// malformed response and reported as a transport error.
func Classify(total int, items []services.SpotifyTrack) (SearchOutcome, error) {
	switch {
	case total <= 0:
		return SearchOutcome{Kind: OutcomeNoResults}, nil
	case total == 1:
		if len(items) == 0 {
			return SearchOutcome{}, fmt.Errorf("%w: search reported 1 result but returned none", shared.ErrFatalTransport)
		}
		track := items[0].RemoteTrack()
		return SearchOutcome{Kind: OutcomeMatched, Track: &track, Count: 1}, nil
	default:
		return SearchOutcome{Kind: OutcomeAmbiguous, Count: total}, nil
	}
}

// Err converts a non-match outcome into the corresponding search error.
func (o SearchOutcome) Err() error {
	switch o.Kind {
	case OutcomeNoResults:
		return shared.ErrNoResults
	case OutcomeAmbiguous:
		return &shared.MultipleResultsError{Count: o.Count}
	default:
		return nil
	}
}

// Matcher runs exact-match searches against a catalog.
type Matcher struct {
	catalog services.Catalog
}

func NewMatcher(catalog services.Catalog) *Matcher {
	return &Matcher{catalog: catalog}
}

// Match issues one search for q with limit 1 and offset 0 and classifies the result.
func (m *Matcher) Match(ctx context.Context, q TrackQuery) (SearchOutcome, error) {
	page, err := m.catalog.SearchTracks(ctx, BuildQuery(q), 1, 0)
	if err != nil {
		return SearchOutcome{}, err
	}
	return Classify(page.Total, page.Items)
}

// MatchTrack returns the single catalog track for the given fields, or [shared.ErrNoResults] or a
// [*shared.MultipleResultsError].
func (m *Matcher) MatchTrack(ctx context.Context, name, artist, album string) (*models.RemoteTrack, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: track name", shared.ErrMissingArgument)
	}
	outcome, err := m.Match(ctx, TrackQuery{Name: name, Artist: artist, Album: album})
	if err != nil {
		return nil, err
	}
	if err := outcome.Err(); err != nil {
		return nil, err
	}
	return outcome.Track, nil
}
