package oauth

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/oauth2"

	"github.com/nexoraai/nexora_server/config"
)

// MetaOAuth drives the Facebook login dialog and the code exchange.
type MetaOAuth struct {
	config *oauth2.Config
}

func NewMetaOAuth(cfg config.MetaConfig) *MetaOAuth {
	dialog := strings.TrimRight(cfg.DialogURL, "/")
	graph := strings.TrimRight(cfg.GraphBaseURL, "/")

	return &MetaOAuth{
		config: &oauth2.Config{
			ClientID:     cfg.AppID,
			ClientSecret: cfg.AppSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   fmt.Sprintf("%s/%s/dialog/oauth", dialog, cfg.GraphVersion),
				TokenURL:  fmt.Sprintf("%s/%s/oauth/access_token", graph, cfg.GraphVersion),
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
	}
}

// Configured reports whether app credentials are present.
func (m *MetaOAuth) Configured() bool {
	return m.config.ClientID != "" && m.config.RedirectURL != ""
}

func (m *MetaOAuth) GetAuthURL(state string) string {
	return m.config.AuthCodeURL(state)
}

// Exchange trades the callback code for a short-lived user token.
func (m *MetaOAuth) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	if code == "" {
		return nil, fmt.Errorf("missing authorization code")
	}
	return m.config.Exchange(ctx, code)
}
