// Package graph is a small read-only client for the Meta Graph API.
package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-querystring/query"

	"github.com/nexoraai/nexora_server/internal/model"
)

// Error is a non-2xx Graph response.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("graph api %d: %s", e.Status, e.Message)
}

type Client struct {
	baseURL    string
	version    string
	httpClient *http.Client
}

func NewClient(baseURL, version string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		version:    version,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type fieldsParams struct {
	Fields string `url:"fields,omitempty"`
	Limit  int    `url:"limit,omitempty"`
}

type exchangeParams struct {
	GrantType       string `url:"grant_type"`
	ClientID        string `url:"client_id"`
	ClientSecret    string `url:"client_secret"`
	FbExchangeToken string `url:"fb_exchange_token"`
}

// Get calls path with params encoded by go-querystring and decodes into out.
func (c *Client) Get(ctx context.Context, path, accessToken string, params interface{}, out interface{}) error {
	values := url.Values{}
	if params != nil {
		v, err := query.Values(params)
		if err != nil {
			return fmt.Errorf("encode graph params: %w", err)
		}
		values = v
	}
	if accessToken != "" {
		values.Set("access_token", accessToken)
	}

	endpoint := fmt.Sprintf("%s/%s/%s?%s", c.baseURL, c.version, strings.TrimLeft(path, "/"), values.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("graph request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("graph read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var payload struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		msg := fmt.Sprintf("HTTP %d", resp.StatusCode)
		if json.Unmarshal(body, &payload) == nil && payload.Error.Message != "" {
			msg = payload.Error.Message
		}
		return &Error{Status: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("graph decode: %w", err)
	}
	return nil
}

// ExchangeLongLived swaps a short-lived user token for a long-lived one.
func (c *Client) ExchangeLongLived(ctx context.Context, appID, appSecret, shortToken string) (string, error) {
	var out struct {
		AccessToken string `json:"access_token"`
	}
	err := c.Get(ctx, "oauth/access_token", "", exchangeParams{
		GrantType:       "fb_exchange_token",
		ClientID:        appID,
		ClientSecret:    appSecret,
		FbExchangeToken: shortToken,
	}, &out)
	if err != nil {
		return "", err
	}
	return out.AccessToken, nil
}

// Pages lists the pages the user manages, with their page tokens.
func (c *Client) Pages(ctx context.Context, userToken string) ([]model.MetaPage, error) {
	var out struct {
		Data []model.MetaPage `json:"data"`
	}
	if err := c.Get(ctx, "me/accounts", userToken, fieldsParams{Fields: "id,name,access_token"}, &out); err != nil {
		return nil, err
	}
	if out.Data == nil {
		out.Data = []model.MetaPage{}
	}
	return out.Data, nil
}

type InstagramAccount struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
}

type PageInfo struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Instagram *InstagramAccount `json:"instagram_business_account"`
}

// Page fetches a page and its linked Instagram business account.
func (c *Client) Page(ctx context.Context, pageID, pageToken string) (*PageInfo, error) {
	var out PageInfo
	err := c.Get(ctx, url.PathEscape(pageID), pageToken,
		fieldsParams{Fields: "id,name,instagram_business_account{name,username}"}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

type mediaItem struct {
	model.IGPost
	ThumbnailURL string `json:"thumbnail_url"`
}

// Media returns up to limit posts of an Instagram account. Videos fall back
// to their thumbnail as media_url.
func (c *Client) Media(ctx context.Context, igID, pageToken string, limit int) ([]model.IGPost, error) {
	var out struct {
		Data []mediaItem `json:"data"`
	}
	err := c.Get(ctx, url.PathEscape(igID)+"/media", pageToken, fieldsParams{
		Fields: "id,caption,media_type,media_url,permalink,timestamp,thumbnail_url",
		Limit:  limit,
	}, &out)
	if err != nil {
		return nil, err
	}

	posts := make([]model.IGPost, 0, len(out.Data))
	for _, item := range out.Data {
		if limit > 0 && len(posts) >= limit {
			break
		}
		post := item.IGPost
		if post.MediaURL == "" {
			post.MediaURL = item.ThumbnailURL
		}
		posts = append(posts, post)
	}
	return posts, nil
}
