package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nexoraai/nexora_server/config"
	"github.com/nexoraai/nexora_server/internal/model"
	"github.com/nexoraai/nexora_server/internal/pkg/graph"
	"github.com/nexoraai/nexora_server/internal/pkg/localstore"
	"github.com/nexoraai/nexora_server/internal/pkg/logger"
	"github.com/nexoraai/nexora_server/internal/pkg/oauth"
)

const defaultSyncLimit = 30

var (
	ErrMetaNotConfigured   = errors.New("Meta Config Missing")
	ErrMetaNotConnected    = errors.New("Não conectado ao Meta")
	ErrPageNotFound        = errors.New("Página não encontrada na conta")
	ErrNoInstagramAccount  = errors.New("Página não possui Instagram Business vinculado.")
	ErrNoInstagramSelected = errors.New("Nenhum Instagram selecionado.")
)

type MetaService struct {
	oauth  *oauth.MetaOAuth
	states *oauth.StateStore
	graph  *graph.Client
	store  *localstore.Store
	cfg    *config.Config
}

func NewMetaService(
	metaOAuth *oauth.MetaOAuth,
	states *oauth.StateStore,
	graphClient *graph.Client,
	store *localstore.Store,
	cfg *config.Config,
) *MetaService {
	return &MetaService{
		oauth:  metaOAuth,
		states: states,
		graph:  graphClient,
		store:  store,
		cfg:    cfg,
	}
}

// StartURL binds a fresh state to owner and returns the Facebook dialog URL.
func (s *MetaService) StartURL(ctx context.Context, owner string) (string, error) {
	if !s.oauth.Configured() {
		return "", ErrMetaNotConfigured
	}
	state, err := s.states.GenerateState(ctx, owner)
	if err != nil {
		return "", err
	}
	return s.oauth.GetAuthURL(state), nil
}

// Callback consumes the state, trades the code for a long-lived user token
// and stores it with the user's pages under the owner bound at start.
func (s *MetaService) Callback(ctx context.Context, code, state string) (string, error) {
	owner, err := s.states.ValidateState(ctx, state)
	if err != nil {
		return "", err
	}

	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("code exchange: %w", err)
	}
	accessToken := token.AccessToken

	long, err := s.graph.ExchangeLongLived(ctx, s.cfg.Meta.AppID, s.cfg.Meta.AppSecret, accessToken)
	if err != nil {
		logger.WithComponent("meta").WithError(err).Warn("long-lived exchange failed, keeping short token")
	} else if long != "" {
		accessToken = long
	}

	pages, err := s.graph.Pages(ctx, accessToken)
	if err != nil {
		return "", fmt.Errorf("list pages: %w", err)
	}

	bundle := &model.MetaTokenBundle{
		ConnectedAt: time.Now().UTC(),
		AccessToken: accessToken,
		Pages:       pages,
	}
	if err := s.store.SaveTokens(owner, bundle); err != nil {
		return "", err
	}
	return owner, nil
}

func (s *MetaService) connected(owner string) (*model.MetaTokenBundle, error) {
	bundle := s.store.Tokens(owner)
	if bundle == nil || bundle.AccessToken == "" {
		return nil, ErrMetaNotConnected
	}
	return bundle, nil
}

func (s *MetaService) Pages(owner string) ([]model.MetaPage, error) {
	bundle, err := s.connected(owner)
	if err != nil {
		return nil, err
	}
	if bundle.Pages == nil {
		return []model.MetaPage{}, nil
	}
	return bundle.Pages, nil
}

// SelectPage resolves the Instagram business account linked to pageID and
// records it as the owner's selection.
func (s *MetaService) SelectPage(ctx context.Context, owner, pageID string) (*model.MetaSelection, error) {
	bundle, err := s.connected(owner)
	if err != nil {
		return nil, err
	}

	var page *model.MetaPage
	for i := range bundle.Pages {
		if bundle.Pages[i].ID == pageID {
			page = &bundle.Pages[i]
			break
		}
	}
	if page == nil {
		return nil, ErrPageNotFound
	}

	info, err := s.graph.Page(ctx, pageID, page.AccessToken)
	if err != nil {
		return nil, err
	}
	if info.Instagram == nil || info.Instagram.ID == "" {
		return nil, ErrNoInstagramAccount
	}

	selected := &model.MetaSelection{
		PageID:          pageID,
		PageName:        info.Name,
		PageAccessToken: page.AccessToken,
		IGID:            info.Instagram.ID,
		IGUsername:      info.Instagram.Username,
		IGName:          info.Instagram.Name,
	}

	err = s.store.UpdateTokens(owner, func(current *model.MetaTokenBundle) (*model.MetaTokenBundle, error) {
		if current == nil {
			return nil, ErrMetaNotConnected
		}
		current.Selected = selected
		return current, nil
	})
	if err != nil {
		return nil, err
	}
	return selected, nil
}

// SyncInstagram replaces the post cache of the selected account and returns
// how many posts were stored.
func (s *MetaService) SyncInstagram(ctx context.Context, owner string, limit int) (int, error) {
	selected := s.Selected(owner)
	if selected == nil {
		return 0, ErrNoInstagramSelected
	}
	if limit <= 0 {
		limit = defaultSyncLimit
	}

	posts, err := s.graph.Media(ctx, selected.IGID, selected.PageAccessToken, limit)
	if err != nil {
		return 0, err
	}

	cache := &model.IGPostCache{
		SyncedAt: time.Now().UTC(),
		Selected: *selected,
		Posts:    posts,
	}
	if err := s.store.SavePosts(selected.IGID, cache); err != nil {
		return 0, err
	}

	logger.WithComponent("meta").WithField("ig_id", selected.IGID).WithField("count", len(posts)).Info("instagram synced")
	return len(posts), nil
}

// Selected returns the owner's chosen Instagram account, nil when none.
func (s *MetaService) Selected(owner string) *model.MetaSelection {
	bundle := s.store.Tokens(owner)
	if bundle == nil || bundle.Selected == nil || bundle.Selected.IGID == "" {
		return nil
	}
	return bundle.Selected
}

// Posts returns the cached posts of an Instagram account.
func (s *MetaService) Posts(igID string) []model.IGPost {
	cache := s.store.Posts(igID)
	if cache == nil {
		return nil
	}
	return cache.Posts
}
