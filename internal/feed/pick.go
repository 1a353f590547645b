package feed

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
)

// Picker chooses one post at random from a set of queries. Pick is not safe
// for concurrent use; Rand is shared between calls.
type Picker struct {
	Client   Client
	Searches []string
	// Template turns a search term into a query; %s is replaced by the term.
	Template string
	Limit    int
	Rand     *rand.Rand
}

// Pick tries random queries until one returns posts, dropping queries that
// come back empty for the rest of this pass. It returns ErrNoResults when
// every query was empty, or the last error when no query succeeded at all.
func (p *Picker) Pick(ctx context.Context) (Post, error) {
	remaining := append([]string(nil), p.Searches...)
	rnd := p.Rand
	if rnd == nil {
		rnd = rand.New(rand.NewSource(rand.Int63()))
	}
	template := p.Template
	if template == "" {
		template = "%s"
	}
	var lastErr error
	answered := false
	for len(remaining) > 0 {
		if err := ctx.Err(); err != nil {
			return Post{}, err
		}
		i := rnd.Intn(len(remaining))
		query := strings.ReplaceAll(template, "%s", remaining[i])
		posts, err := p.Client.Search(ctx, query, p.Limit)
		if err != nil {
			lastErr = fmt.Errorf("query %q: %w", query, err)
		} else {
			answered = true
		}
		if len(posts) > 0 {
			return posts[rnd.Intn(len(posts))], nil
		}
		remaining = append(remaining[:i], remaining[i+1:]...)
	}
	if !answered && lastErr != nil {
		return Post{}, lastErr
	}
	return Post{}, ErrNoResults
}

// IsEmpty reports whether err means "nothing matched" rather than a failure.
func IsEmpty(err error) bool { return errors.Is(err, ErrNoResults) }
