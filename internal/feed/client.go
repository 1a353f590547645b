package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	_ "golang.org/x/image/webp"
)

// ErrNoResults means every configured query came back empty.
var ErrNoResults = errors.New("feed: no posts found")

// MaxLimit is the largest page the timeline endpoint serves.
const MaxLimit = 40

// Post is one feed item with its body already reduced to plain text.
type Post struct {
	ID          string
	URL         string
	Handle      string
	DisplayName string
	AvatarURL   string
	Text        string
	CreatedAt   time.Time
}

type Client interface {
	Search(ctx context.Context, query string, limit int) ([]Post, error)
	FetchImage(ctx context.Context, rawURL string) (image.Image, error)
}

// MastodonClient reads public hashtag timelines from a Mastodon-compatible
// server.
type MastodonClient struct {
	BaseURL     string
	AccessToken string
	HTTP        *http.Client
}

func NewMastodonClient(baseURL, token string) *MastodonClient {
	return &MastodonClient{BaseURL: strings.TrimRight(baseURL, "/"), AccessToken: token, HTTP: &http.Client{Timeout: 15 * time.Second}}
}

type mastoAccount struct {
	Acct         string `json:"acct"`
	DisplayName  string `json:"display_name"`
	AvatarStatic string `json:"avatar_static"`
}

type mastoStatus struct {
	ID        string       `json:"id"`
	URL       string       `json:"url"`
	CreatedAt time.Time    `json:"created_at"`
	Content   string       `json:"content"`
	Account   mastoAccount `json:"account"`
	Reblog    *mastoStatus `json:"reblog"`
}

func (c *MastodonClient) Search(ctx context.Context, query string, limit int) ([]Post, error) {
	tag := strings.TrimPrefix(strings.TrimSpace(query), "#")
	if tag == "" {
		return nil, fmt.Errorf("feed: empty query")
	}
	if limit <= 0 || limit > MaxLimit {
		limit = MaxLimit
	}
	endpoint := c.BaseURL + "/api/v1/timelines/tag/" + url.PathEscape(tag) + "?limit=" + strconv.Itoa(limit)
	res, err := c.do(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	var statuses []mastoStatus
	if err := json.NewDecoder(res.Body).Decode(&statuses); err != nil {
		return nil, fmt.Errorf("feed %s: decode: %w", tag, err)
	}
	posts := make([]Post, 0, len(statuses))
	for _, s := range statuses {
		if s.Reblog != nil {
			s = *s.Reblog
		}
		posts = append(posts, Post{
			ID:          s.ID,
			URL:         s.URL,
			Handle:      s.Account.Acct,
			DisplayName: Flatten(s.Account.DisplayName),
			AvatarURL:   s.Account.AvatarStatic,
			Text:        Flatten(PlainText(s.Content)),
			CreatedAt:   s.CreatedAt,
		})
	}
	return posts, nil
}

func (c *MastodonClient) FetchImage(ctx context.Context, rawURL string) (image.Image, error) {
	res, err := c.do(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	img, _, err := image.Decode(res.Body)
	if err != nil {
		return nil, fmt.Errorf("feed image %s: %w", rawURL, err)
	}
	return img, nil
}

func (c *MastodonClient) do(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	if c.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.AccessToken)
	}
	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	res, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("feed get: %w", err)
	}
	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		res.Body.Close()
		return nil, fmt.Errorf("feed get %s: status %d: %s", rawURL, res.StatusCode, body)
	}
	return res, nil
}
