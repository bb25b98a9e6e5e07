package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sort"
	"strings"
	"time"

	"github.com/matcha-app/matcha/internal/geo"
	"github.com/matcha-app/matcha/internal/profile"
	"github.com/matcha-app/matcha/internal/ranking"
)

// Ranker is the decision core of discovery. All operations are scoped
// to an authenticated requester, are read-only, and respect the
// caller's context.
type Ranker struct {
	profiles   profile.Repository
	candidates CandidateRepository
	weights    *ranking.Weights
	logger     *slog.Logger
	now        func() time.Time
	shuffle    func(n int, swap func(i, j int))
}

// RankerConfig carries the Ranker's dependencies. Profiles and
// Candidates are required; everything else has defaults.
type RankerConfig struct {
	Profiles   profile.Repository
	Candidates CandidateRepository
	Weights    *ranking.Weights
	Logger     *slog.Logger
}

func NewRanker(cfg RankerConfig) *Ranker {
	weights := cfg.Weights
	if weights == nil {
		weights = ranking.DefaultWeights()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Ranker{
		profiles:   cfg.Profiles,
		candidates: cfg.Candidates,
		weights:    weights,
		logger:     logger,
		now:        time.Now,
		shuffle:    rand.Shuffle,
	}
}

// requesterContext is everything about the requester the ranking math
// needs: profile for compatibility, location for distance, tags for
// affinity.
type requesterContext struct {
	profile  *profile.Profile
	location *geo.Point
	tags     map[string]struct{}
}

func (rk *Ranker) loadRequester(ctx context.Context, requesterID string) (*requesterContext, error) {
	p, err := rk.profiles.GetProfile(ctx, requesterID)
	if err != nil {
		return nil, fmt.Errorf("load requester profile: %w", err)
	}
	loc, err := rk.profiles.GetLocation(ctx, requesterID)
	if err != nil {
		return nil, fmt.Errorf("load requester location: %w", err)
	}
	tagNames, err := rk.profiles.ListUserTags(ctx, requesterID)
	if err != nil {
		return nil, fmt.Errorf("load requester tags: %w", err)
	}
	tags := make(map[string]struct{}, len(tagNames))
	for _, t := range tagNames {
		tags[t] = struct{}{}
	}
	rc := &requesterContext{profile: p, tags: tags}
	if loc != nil {
		rc.location = &loc.Point
	}
	return rc, nil
}

// eligible loads the visible candidates and applies the bidirectional
// orientation/gender compatibility filter.
func (rk *Ranker) eligible(ctx context.Context, req *requesterContext, requesterID string) ([]Candidate, error) {
	rows, err := rk.candidates.ListVisibleCandidates(ctx, requesterID)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	out := rows[:0]
	for _, c := range rows {
		if Compatible(req.profile, &c) {
			out = append(out, c)
		}
	}
	return out, nil
}

func sharedTagCount(requesterTags map[string]struct{}, candidateTags []string) int {
	n := 0
	for _, t := range candidateTags {
		if _, ok := requesterTags[t]; ok {
			n++
		}
	}
	return n
}

// scored pairs a candidate with its ranking inputs.
type scored struct {
	candidate Candidate
	score     float64
	shared    int
	distance  *float64
}

func (rk *Ranker) score(req *requesterContext, candidates []Candidate) []scored {
	out := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		shared := sharedTagCount(req.tags, c.Tags)
		s := scored{
			candidate: c,
			shared:    shared,
			score: ranking.CompositeScore(ranking.CandidateParams{
				Fame:        ranking.NormalizeFame(c.FameRating),
				TagAffinity: ranking.TagAffinityWeight(shared),
			}, rk.weights),
		}
		if req.location != nil && c.Location != nil {
			d := geo.Distance(*req.location, *c.Location)
			s.distance = &d
		}
		out = append(out, s)
	}
	return out
}

// sortByComposite orders by composite score descending, then
// last_active descending, then id ascending for determinism.
func sortByComposite(items []scored) {
	sort.Slice(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.score != b.score {
			return a.score > b.score
		}
		return tieBreak(a, b)
	})
}

func tieBreak(a, b scored) bool {
	if !a.candidate.LastActive.Equal(b.candidate.LastActive) {
		return a.candidate.LastActive.After(b.candidate.LastActive)
	}
	return a.candidate.ID < b.candidate.ID
}

func normalizePage(limit, offset, defaultLimit int) (int, int) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func paginate(items []scored, limit, offset int) []scored {
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

func (rk *Ranker) summarize(items []scored) []CandidateSummary {
	now := rk.now()
	out := make([]CandidateSummary, 0, len(items))
	for _, s := range items {
		c := s.candidate
		summary := CandidateSummary{
			ID:         c.ID,
			Name:       c.Name,
			Age:        c.Age(now),
			DistanceKm: s.distance,
			FameRating: c.FameRating,
			Tags:       c.Tags,
			LastActive: c.LastActive,
			Online:     now.Sub(c.LastActive) <= OnlineWindow,
		}
		if c.Location != nil {
			summary.Geohash = geo.Encode(c.Location.Lat, c.Location.Lng, geo.DefaultPrecision)
		}
		out = append(out, summary)
	}
	return out
}

// GetDiscovery returns the default relevance-ordered page of
// candidates: compatibility-filtered, composite-scored, paginated.
func (rk *Ranker) GetDiscovery(ctx context.Context, requesterID string, limit, offset int) (*Result, error) {
	limit, offset = normalizePage(limit, offset, DefaultDiscoveryLimit)
	req, err := rk.loadRequester(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	candidates, err := rk.eligible(ctx, req, requesterID)
	if err != nil {
		return nil, err
	}
	items := rk.score(req, candidates)
	sortByComposite(items)
	total := len(items)
	return &Result{
		Candidates: rk.summarize(paginate(items, limit, offset)),
		Total:      total,
	}, nil
}

// GetRandom returns eligible candidates in a fresh uniform random
// order. Every call reshuffles, even for identical state.
func (rk *Ranker) GetRandom(ctx context.Context, requesterID string, limit int) (*Result, error) {
	limit, _ = normalizePage(limit, 0, DefaultRandomLimit)
	req, err := rk.loadRequester(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	candidates, err := rk.eligible(ctx, req, requesterID)
	if err != nil {
		return nil, err
	}
	items := rk.score(req, candidates)
	rk.shuffle(len(items), func(i, j int) {
		items[i], items[j] = items[j], items[i]
	})
	total := len(items)
	return &Result{
		Candidates: rk.summarize(paginate(items, limit, 0)),
		Total:      total,
	}, nil
}

// Search filters eligible candidates whose name contains the query,
// case-insensitively. An empty or whitespace-only query returns an
// empty result rather than all users.
func (rk *Ranker) Search(ctx context.Context, requesterID, query string, limit, offset int) (*Result, error) {
	limit, offset = normalizePage(limit, offset, DefaultDiscoveryLimit)
	query = strings.TrimSpace(query)
	if query == "" {
		return &Result{Candidates: []CandidateSummary{}}, nil
	}
	req, err := rk.loadRequester(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	candidates, err := rk.eligible(ctx, req, requesterID)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(query)
	matched := candidates[:0]
	for _, c := range candidates {
		if strings.Contains(strings.ToLower(c.Name), needle) {
			matched = append(matched, c)
		}
	}
	items := rk.score(req, matched)
	sortByComposite(items)
	total := len(items)
	return &Result{
		Candidates: rk.summarize(paginate(items, limit, offset)),
		Total:      total,
	}, nil
}

// GetFiltered applies the recognized criteria on top of eligibility.
// A requester without a location is still served: distance filtering
// excludes nothing and distance sorting falls back to fame ordering.
func (rk *Ranker) GetFiltered(ctx context.Context, requesterID string, criteria Criteria, limit, offset int) (*Result, error) {
	if err := criteria.Validate(); err != nil {
		return nil, err
	}
	limit, offset = normalizePage(limit, offset, DefaultDiscoveryLimit)
	req, err := rk.loadRequester(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	candidates, err := rk.eligible(ctx, req, requesterID)
	if err != nil {
		return nil, err
	}
	items := rk.score(req, candidates)
	items = rk.applyCriteria(req, items, criteria)
	rk.sortFiltered(req, items, criteria)
	total := len(items)
	return &Result{
		Candidates: rk.summarize(paginate(items, limit, offset)),
		Total:      total,
	}, nil
}

func (rk *Ranker) applyCriteria(req *requesterContext, items []scored, criteria Criteria) []scored {
	now := rk.now()
	wantTags := make(map[string]struct{}, len(criteria.Tags))
	for _, t := range criteria.Tags {
		wantTags[strings.ToLower(t)] = struct{}{}
	}
	out := items[:0]
	for _, s := range items {
		age := s.candidate.Age(now)
		if criteria.AgeMin != nil && age < *criteria.AgeMin {
			continue
		}
		if criteria.AgeMax != nil && age > *criteria.AgeMax {
			continue
		}
		if criteria.MinFameRating != nil && s.candidate.FameRating < *criteria.MinFameRating {
			continue
		}
		// Distance constraints only apply when the requester has a
		// location to measure from.
		if criteria.MaxDistanceKm != nil && req.location != nil {
			if s.distance == nil || *s.distance > *criteria.MaxDistanceKm {
				continue
			}
		}
		if len(wantTags) > 0 && sharedTagCount(wantTags, s.candidate.Tags) == 0 {
			continue
		}
		out = append(out, s)
	}
	return out
}

func (rk *Ranker) sortFiltered(req *requesterContext, items []scored, criteria Criteria) {
	asc := criteria.SortOrder == SortOrderAsc
	sortBy := criteria.SortBy
	if sortBy == SortByDistance && req.location == nil {
		sortBy = SortByFameRating
	}
	now := rk.now()

	var primary func(a, b scored) int
	switch sortBy {
	case SortByDistance:
		primary = func(a, b scored) int {
			// Unknown distance sorts last in either direction.
			switch {
			case a.distance == nil && b.distance == nil:
				return 0
			case a.distance == nil:
				return 1
			case b.distance == nil:
				return -1
			}
			return compareFloat(*a.distance, *b.distance, asc)
		}
	case SortByAge:
		primary = func(a, b scored) int {
			return compareInt(a.candidate.Age(now), b.candidate.Age(now), asc)
		}
	case SortByTags:
		primary = func(a, b scored) int {
			return compareInt(a.shared, b.shared, asc)
		}
	case SortByFameRating, "":
		primary = func(a, b scored) int {
			return compareInt(a.candidate.FameRating, b.candidate.FameRating, asc)
		}
	}

	sort.Slice(items, func(i, j int) bool {
		if c := primary(items[i], items[j]); c != 0 {
			return c < 0
		}
		return tieBreak(items[i], items[j])
	})
}

func compareInt(a, b int, asc bool) int {
	if a == b {
		return 0
	}
	less := a < b
	if less == asc {
		return -1
	}
	return 1
}

func compareFloat(a, b float64, asc bool) int {
	if a == b {
		return 0
	}
	less := a < b
	if less == asc {
		return -1
	}
	return 1
}
