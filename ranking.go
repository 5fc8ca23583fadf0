package venuebed

import (
	"context"
	"strings"

	"github.com/agnivade/levenshtein"
	"go.uber.org/zap"
)

// RegionalTopLists holds one ordered venue list per region, RegionAll
// included. Lists are never modified once built.
type RegionalTopLists struct {
	lists [regionCount][]Venue
}

// For returns the list for r. An empty list is a valid result meaning
// nothing matched yet.
func (t RegionalTopLists) For(r Region) []Venue {
	if int(r) >= regionCount {
		return nil
	}
	return t.lists[r]
}

// All returns the interleaved cross-region list.
func (t RegionalTopLists) All() []Venue {
	return t.lists[RegionAll]
}

// rankingPass carries the per-computation memo tables.
type rankingPass struct {
	e       *Engine
	pool    []Venue
	names   []string
	addrs   []string
	queries map[string][]int
	regions []regionMemo
}

type regionMemo struct {
	done   bool
	ok     bool
	region Region
}

func (e *Engine) newRankingPass(pool []Venue) *rankingPass {
	p := &rankingPass{
		e:       e,
		pool:    pool,
		names:   make([]string, len(pool)),
		addrs:   make([]string, len(pool)),
		queries: make(map[string][]int),
		regions: make([]regionMemo, len(pool)),
	}
	for i, v := range pool {
		p.names[i] = NormalizedName(v.Name)
		p.addrs[i] = NormalizedName(v.Address)
	}
	return p
}

// lookup returns pool indexes whose normalized name or address contains
// query. Results are memoized for the pass.
func (p *rankingPass) lookup(query string) []int {
	if hits, ok := p.queries[query]; ok {
		return hits
	}
	var hits []int
	for i := range p.pool {
		if strings.Contains(p.names[i], query) || strings.Contains(p.addrs[i], query) {
			hits = append(hits, i)
		}
	}
	p.queries[query] = hits
	return hits
}

func (p *rankingPass) inRegion(i int, r Region) bool {
	if r == RegionAll {
		return true
	}
	m := &p.regions[i]
	if !m.done {
		m.region, m.ok = p.e.classifier.RegionFor(p.pool[i])
		m.done = true
	}
	return m.ok && m.region == r
}

// pickCandidate chooses one venue among the matches for a curated name:
// exact name in region, then any match in region, then exact name anywhere,
// then the first match.
func (p *rankingPass) pickCandidate(query string, hits []int, r Region) int {
	regional, exact := -1, -1
	for _, i := range hits {
		isExact := p.names[i] == query
		inRegion := p.inRegion(i, r)
		if isExact && inRegion {
			return i
		}
		if inRegion && regional < 0 {
			regional = i
		}
		if isExact && exact < 0 {
			exact = i
		}
	}
	switch {
	case regional >= 0:
		return regional
	case exact >= 0:
		return exact
	}
	return hits[0]
}

// curatedFor resolves a region's curated names to at most TopN venues.
func (p *rankingPass) curatedFor(r Region, names []string) []Venue {
	topN := p.e.cfg.TopN
	seen := make(map[string]struct{}, topN)
	out := make([]Venue, 0, topN)
	for _, name := range names {
		if len(out) >= topN {
			break
		}
		query := NormalizedName(name)
		if query == "" {
			continue
		}
		hits := p.lookup(query)
		if len(hits) == 0 {
			continue
		}
		v := p.pool[p.pickCandidate(query, hits, r)]
		if _, dup := seen[v.ID]; dup {
			continue
		}
		seen[v.ID] = struct{}{}
		out = append(out, v)
	}
	return out
}

// fallbackSlice returns the first FallbackCap venues of fallback in r.
func (e *Engine) fallbackSlice(fallback []Venue, r Region) []Venue {
	out := make([]Venue, 0, e.cfg.FallbackCap)
	for _, v := range fallback {
		if len(out) >= e.cfg.FallbackCap {
			break
		}
		if e.classifier.Matches(v, r) {
			out = append(out, v)
		}
	}
	return out
}

// ComputeRegionalTopLists builds the per-region lists and the interleaved
// RegionAll list. pool should already be deduplicated; fallback pads regions
// whose curated names cannot fill TopN places.
func (e *Engine) ComputeRegionalTopLists(pool []Venue, curated CuratedNames, fallback []Venue) RegionalTopLists {
	lists, _ := e.ComputeRegionalTopListsContext(context.Background(), pool, curated, fallback)
	return lists
}

// ComputeRegionalTopListsContext is ComputeRegionalTopLists with
// cancellation between regions. It returns ctx.Err() if abandoned; nothing
// is shared with the caller until it returns.
func (e *Engine) ComputeRegionalTopListsContext(ctx context.Context, pool []Venue, curated CuratedNames, fallback []Venue) (RegionalTopLists, error) {
	var result RegionalTopLists
	pass := e.newRankingPass(pool)
	topN := e.cfg.TopN

	named := NamedRegions()
	perRegion := make([][]Venue, 0, len(named))
	for _, r := range named {
		if err := ctx.Err(); err != nil {
			return RegionalTopLists{}, err
		}

		list := pass.curatedFor(r, curated[r])
		if len(list) < topN {
			fb := e.fallbackSlice(fallback, r)
			if len(list) == 0 {
				e.logger.Debug("No curated venues resolved, using fallback",
					zap.Stringer("region", r),
					zap.Int("fallback", len(fb)),
				)
			}
			list = padFrom(list, fb, topN)
		}
		if len(list) > topN {
			list = list[:topN]
		}
		result.lists[r] = list
		perRegion = append(perRegion, list)
	}

	result.lists[RegionAll] = interleaveRoundRobin(perRegion)
	return result, nil
}

// padFrom appends venues from extra not already in list until list holds n.
func padFrom(list, extra []Venue, n int) []Venue {
	seen := make(map[string]struct{}, len(list))
	for _, v := range list {
		seen[v.ID] = struct{}{}
	}
	for _, v := range extra {
		if len(list) >= n {
			break
		}
		if _, dup := seen[v.ID]; dup {
			continue
		}
		seen[v.ID] = struct{}{}
		list = append(list, v)
	}
	return list
}

// interleaveRoundRobin takes element 0 of every list, then element 1, and
// so on, keeping only the first occurrence of each ID.
func interleaveRoundRobin(lists [][]Venue) []Venue {
	longest := 0
	total := 0
	for _, l := range lists {
		longest = max(longest, len(l))
		total += len(l)
	}
	seen := make(map[string]struct{}, total)
	out := make([]Venue, 0, total)
	for i := 0; i < longest; i++ {
		for _, l := range lists {
			if i >= len(l) {
				continue
			}
			if _, dup := seen[l[i].ID]; dup {
				continue
			}
			seen[l[i].ID] = struct{}{}
			out = append(out, l[i])
		}
	}
	return out
}

// CuratedSuggestion describes a curated name that matched nothing in the
// pool, with the closest pool name if one is near enough.
type CuratedSuggestion struct {
	Region     Region
	Name       string
	Suggestion string // empty when nothing is within MaxSuggestionDistance
	Distance   int
}

// SuggestCuratedNames reports every curated name that resolves to no venue
// in pool. Editors use it to fix list entries whose spelling drifted from
// the source data.
func (e *Engine) SuggestCuratedNames(pool []Venue, curated CuratedNames) []CuratedSuggestion {
	pass := e.newRankingPass(pool)
	var out []CuratedSuggestion
	for _, r := range NamedRegions() {
		for _, name := range curated[r] {
			query := NormalizedName(name)
			if query == "" || len(pass.lookup(query)) > 0 {
				continue
			}
			s := CuratedSuggestion{Region: r, Name: name, Distance: -1}
			for i, candidate := range pass.names {
				if candidate == "" {
					continue
				}
				d := levenshtein.ComputeDistance(query, candidate)
				if d > e.cfg.MaxSuggestionDistance {
					continue
				}
				if s.Distance < 0 || d < s.Distance {
					s.Suggestion, s.Distance = pool[i].Name, d
				}
			}
			out = append(out, s)
		}
	}
	return out
}
