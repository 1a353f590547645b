package tiles

import (
	"context"
	"fmt"
	"image"
	"math/rand"
	"strings"
	"time"

	"github.com/DanCrank/shopclock/internal/config"
	"github.com/DanCrank/shopclock/internal/feed"
	"github.com/DanCrank/shopclock/internal/render"
	"github.com/DanCrank/shopclock/internal/render/layout"
	"github.com/DanCrank/shopclock/internal/state"
	"github.com/disintegration/imaging"
)

const (
	defaultFeedTitle  = "Feed"
	defaultAvatarSize = 96
	postTimeLayout    = "03:04:05 PM Monday January 02 2006"
)

type postSnapshot struct {
	statusOf
	post   feed.Post
	found  bool
	avatar image.Image
}

// RandomPostTile shows one random recent post matching one of its searches.
type RandomPostTile struct {
	*base
	title    string
	picker   *feed.Picker
	client   feed.Client
	interval time.Duration
	now      func() time.Time
	snap     *state.Value[postSnapshot]
}

func NewRandomPostTile(entry config.Tile, deps Deps) (*RandomPostTile, error) {
	b, err := newBase(KindRandomPost, entry, deps)
	if err != nil {
		return nil, err
	}
	if deps.Feed == nil {
		return nil, fmt.Errorf("tile %s: no feed client configured", b.name)
	}
	rnd := deps.Rand
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &RandomPostTile{
		base:  b,
		title: orDefault(entry.Title, defaultFeedTitle),
		picker: &feed.Picker{
			Client:   deps.Feed,
			Searches: entry.Searches,
			Template: orDefault(entry.Query, "%s"),
			Limit:    entry.Freshness,
			Rand:     rnd,
		},
		client:   deps.Feed,
		interval: deps.FeedInterval,
		now:      deps.now(),
		snap:     state.NewValue(postSnapshot{}),
	}, nil
}

func (t *RandomPostTile) RefreshInterval() time.Duration { return t.interval }

// Refresh picks a new post. When every query fails the old post stays up
// and the tile goes stale; when the queries merely find nothing the tile
// switches to its placeholder.
func (t *RandomPostTile) Refresh(ctx context.Context) error {
	t.refreshing.Lock()
	defer t.refreshing.Unlock()
	post, err := t.picker.Pick(ctx)
	if feed.IsEmpty(err) {
		t.log.Infof("tile", "%s: no posts found for any search", t.name)
		t.snap.Store(postSnapshot{statusOf: statusOf{}.succeeded(t.now())})
		return nil
	}
	if err != nil {
		t.snap.Update(func(s postSnapshot) postSnapshot {
			s.statusOf = s.statusOf.failed(err)
			return s
		})
		return err
	}
	var avatar image.Image
	if post.AvatarURL != "" {
		img, err := t.client.FetchImage(ctx, post.AvatarURL)
		if err != nil {
			t.log.Infof("tile", "%s: avatar %s: %v", t.name, post.AvatarURL, err)
		} else {
			avatar = imaging.Resize(img, defaultAvatarSize, defaultAvatarSize, imaging.Lanczos)
		}
	}
	t.log.Infof("tile", "%s: picked post %s", t.name, orDefault(post.URL, post.ID))
	t.snap.Store(postSnapshot{statusOf: statusOf{}.succeeded(t.now()), post: post, found: true, avatar: avatar})
	return nil
}

func (t *RandomPostTile) Status() Status { return t.snap.Load().status() }

// Placeholder is shown when no post is available.
func (t *RandomPostTile) Placeholder() string {
	return t.title + "\n\n(Post not found)"
}

// Body is the post text followed by a blank line and its timestamp.
func (t *RandomPostTile) Body() string { return postBody(t.snap.Load().post) }

func postBody(p feed.Post) string {
	text := p.Text
	if !p.CreatedAt.IsZero() {
		if !strings.HasSuffix(text, "\n") {
			text += "\n"
		}
		text += "\n" + p.CreatedAt.Local().Format(postTimeLayout)
	}
	return text
}

func (t *RandomPostTile) RenderLarge() *image.RGBA {
	img := t.canvas()
	s := t.snap.Load()
	face := t.face(t.fontSize)
	if !s.found {
		blit(img, t.text(t.Placeholder(), face, t.fg, render.TextAlignLeft), margin, margin)
		if s.stale {
			t.staleMarker(img)
		}
		return img
	}

	byline := "@" + s.post.Handle
	if s.post.DisplayName != "" {
		byline += " (" + s.post.DisplayName + ")"
	}
	bylineImg := t.text(byline, face, t.fg, render.TextAlignLeft)
	bh := bylineImg.Bounds().Dy()

	inner := layout.Inset(img.Bounds(), margin)
	headerH, avatarW := bh, 0
	if s.avatar != nil {
		ab := s.avatar.Bounds()
		headerH, avatarW = max(ab.Dy(), bh), ab.Dx()+margin/2
	}
	header, rest := layout.SplitHorizontal(inner, headerH+margin)
	avatarRect, bylineRect := layout.SplitVertical(header, avatarW)
	if s.avatar != nil {
		blit(img, s.avatar, avatarRect.Min.X, avatarRect.Min.Y)
	}
	blit(img, bylineImg, bylineRect.Min.X, bylineRect.Min.Y+(headerH-bh)/2)

	body := t.wrapped(postBody(s.post), inner.Dx(), face, render.TextAlignLeft)
	blit(img, body, rest.Min.X, rest.Min.Y)
	if s.stale {
		t.staleMarker(img)
	}
	return img
}
