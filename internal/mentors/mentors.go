// Package mentors loads the counterparty pool from external sheets and
// databases into the store.
package mentors

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/ideaflow/internal/model"
)

// Source produces mentor records. ExternalID must be stable across loads.
type Source interface {
	Name() string
	Load(ctx context.Context) ([]model.Mentor, error)
}

// Upserter persists mentors keyed by ExternalID.
type Upserter interface {
	UpsertMentors(ctx context.Context, mentors []model.Mentor) (int, error)
}

// Result summarizes an import.
type Result struct {
	Loaded  int `json:"loaded"`
	Skipped int `json:"skipped"`
	Written int `json:"written"`
}

// Import loads every source concurrently and upserts the union. A failing
// source fails the whole import so a partial pool is never written.
func Import(ctx context.Context, st Upserter, sources ...Source) (*Result, error) {
	if len(sources) == 0 {
		return nil, eris.New("mentors: no sources")
	}

	loaded := make([][]model.Mentor, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		g.Go(func() error {
			ms, err := src.Load(gctx)
			if err != nil {
				return eris.Wrapf(err, "mentors: load %s", src.Name())
			}
			zap.L().Info("mentors loaded", zap.String("source", src.Name()), zap.Int("count", len(ms)))
			loaded[i] = ms
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &Result{}
	seen := make(map[string]bool)
	var batch []model.Mentor
	for _, ms := range loaded {
		for _, m := range ms {
			res.Loaded++
			m = clean(m)
			if m.Name == "" || m.ExternalID == "" || seen[m.ExternalID] {
				res.Skipped++
				continue
			}
			seen[m.ExternalID] = true
			batch = append(batch, m)
		}
	}
	if len(batch) == 0 {
		return res, nil
	}

	n, err := st.UpsertMentors(ctx, batch)
	if err != nil {
		return nil, eris.Wrap(err, "mentors: upsert")
	}
	res.Written = n
	return res, nil
}

func clean(m model.Mentor) model.Mentor {
	m.Name = strings.TrimSpace(m.Name)
	m.Contact = strings.TrimSpace(m.Contact)
	m.Location = strings.TrimSpace(m.Location)
	m.Bio = strings.TrimSpace(m.Bio)
	m.Expertise = cleanList(m.Expertise)
	m.Categories = cleanList(m.Categories)
	m.Languages = cleanList(m.Languages)
	if m.Capacity < 0 {
		m.Capacity = 0
	}
	return m
}

// cleanList lowercases, trims and de-duplicates tags.
func cleanList(in []string) []string {
	var out []string
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func splitList(s string) []string {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';' || r == '|'
	})
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
