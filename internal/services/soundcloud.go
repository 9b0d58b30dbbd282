// SoundCloud API implementation of [Client]
//
// Response shapes follow the https://api.soundcloud.com resources
// /me/playlists, /me/tracks, /tracks and /playlists.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/twhispr/internal/models"
	"github.com/desertthunder/twhispr/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	soundcloudBaseURL  = "https://api.soundcloud.com"
	soundcloudTokenURL = "https://api.soundcloud.com/oauth2/token"
	soundcloudAuthURL  = "https://secure.soundcloud.com/authorize"
	defaultTimeout     = 120 * time.Second
)

// SoundCloudOpts configures a [SoundCloudService].
type SoundCloudOpts struct {
	Credentials shared.SoundCloudConfig
	HTTPClient  *http.Client    // base client, defaults to one with the configured timeout
	Observer    RequestObserver // optional, sees every round trip
}

// SoundCloudService implements [Client] over the SoundCloud HTTP API.
// Uses [oauth2] for authentication and a [rate.Limiter] to pace requests.
type SoundCloudService struct {
	config      *oauth2.Config
	token       *oauth2.Token
	baseURL     string
	baseClient  *http.Client
	httpClient  *http.Client
	limiter     *rate.Limiter
	credentials shared.SoundCloudConfig
}

// NewSoundCloudService creates a service from explicit credentials. Call
// [SoundCloudService.Authenticate] before any other method.
func NewSoundCloudService(opts SoundCloudOpts) (*SoundCloudService, error) {
	creds := opts.Credentials
	if creds.ClientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}
	if creds.ClientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	baseURL := strings.TrimRight(creds.BaseURL, "/")
	if baseURL == "" {
		baseURL = soundcloudBaseURL
	}
	tokenURL := creds.TokenURL
	if tokenURL == "" {
		tokenURL = soundcloudTokenURL
	}
	authURL := creds.AuthURL
	if authURL == "" {
		authURL = soundcloudAuthURL
	}

	client := opts.HTTPClient
	if client == nil {
		timeout := defaultTimeout
		if creds.TimeoutSeconds > 0 {
			timeout = time.Duration(creds.TimeoutSeconds) * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if creds.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(creds.RateLimit), 1)
	}

	return &SoundCloudService{
		config: &oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			Endpoint: oauth2.Endpoint{
				AuthURL:   authURL,
				TokenURL:  tokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
			RedirectURL: creds.RedirectURI,
			Scopes:      []string{"non-expiring"},
		},
		baseURL:     baseURL,
		baseClient:  withObserver(client, opts.Observer),
		limiter:     limiter,
		credentials: creds,
	}, nil
}

func (s *SoundCloudService) Name() string {
	return "SoundCloud"
}

// Authenticate obtains a token. A configured access_token is used as-is;
// otherwise the username and password are exchanged with the password grant.
func (s *SoundCloudService) Authenticate(ctx context.Context) error {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.baseClient)

	switch {
	case s.credentials.AccessToken != "":
		s.token = &oauth2.Token{AccessToken: s.credentials.AccessToken, TokenType: "OAuth"}
	case s.credentials.Username != "" && s.credentials.Password != "":
		token, err := s.config.PasswordCredentialsToken(ctx, s.credentials.Username, s.credentials.Password)
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
		}
		s.token = token
	default:
		return fmt.Errorf("%w: need access_token or username and password", shared.ErrMissingCredentials)
	}

	s.httpClient = s.config.Client(ctx, s.token)
	return nil
}

// AuthCodeURL returns the browser URL for the authorization code flow with
// a PKCE challenge derived from verifier.
func (s *SoundCloudService) AuthCodeURL(state, verifier string) (string, error) {
	if s.config.RedirectURL == "" {
		return "", fmt.Errorf("%w: missing redirect_uri", shared.ErrMissingCredentials)
	}
	return s.config.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier)), nil
}

// Exchange trades an authorization code for a token and authenticates the service with it.
func (s *SoundCloudService) Exchange(ctx context.Context, code, verifier string) (*oauth2.Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.baseClient)

	token, err := s.config.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	s.token = token
	s.httpClient = s.config.Client(ctx, s.token)
	return token, nil
}

// resolve turns an endpoint path or absolute resource URI into a request URL.
func (s *SoundCloudService) resolve(endpoint string) string {
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	return s.baseURL + endpoint
}

// doRequest performs an authenticated request and decodes a JSON response into result.
//
// Non-2xx responses become [*APIError]; network and decoding failures wrap [shared.ErrTransport].
func (s *SoundCloudService) doRequest(ctx context.Context, method, endpoint, contentType string, body io.Reader, result any) error {
	if s.httpClient == nil {
		return fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrTransport, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.resolve(endpoint), body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", shared.ErrTransport, method, endpoint, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response: %w", shared.ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Method:     method,
			Path:       endpoint,
			Message:    errorMessage(data),
		}
	}

	if result != nil && len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("%w: failed to decode response: %w", shared.ErrTransport, err)
		}
	}

	return nil
}

// collection accepts both a bare JSON array and a linked-partitioning page.
type collection[T any] struct {
	Items   []T
	NextURL string
}

func (c *collection[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		return json.Unmarshal(data, &c.Items)
	}

	var page struct {
		Collection []T    `json:"collection"`
		NextHref   string `json:"next_href"`
	}
	if err := json.Unmarshal(data, &page); err != nil {
		return err
	}
	c.Items, c.NextURL = page.Collection, page.NextHref
	return nil
}

// getAll follows next_href links until the listing is exhausted.
func getAll[T any](ctx context.Context, s *SoundCloudService, endpoint string) ([]T, error) {
	var all []T
	for endpoint != "" {
		var page collection[T]
		if err := s.doRequest(ctx, http.MethodGet, endpoint, "", nil, &page); err != nil {
			return nil, err
		}
		all = append(all, page.Items...)
		endpoint = page.NextURL
	}
	return all, nil
}

// Playlists retrieves the user's playlists, passing query as the q parameter.
func (s *SoundCloudService) Playlists(ctx context.Context, query string) ([]models.Playlist, error) {
	endpoint := "/me/playlists"
	if query != "" {
		endpoint += "?q=" + url.QueryEscape(query)
	}
	return getAll[models.Playlist](ctx, s, endpoint)
}

// Playlist retrieves a single playlist by id.
func (s *SoundCloudService) Playlist(ctx context.Context, id string) (*models.Playlist, error) {
	var playlist models.Playlist
	if err := s.doRequest(ctx, http.MethodGet, "/me/playlists/"+url.PathEscape(id), "", nil, &playlist); err != nil {
		return nil, err
	}
	return &playlist, nil
}

// MyTracks retrieves every track owned by the authenticated user.
func (s *SoundCloudService) MyTracks(ctx context.Context) ([]models.Track, error) {
	return getAll[models.Track](ctx, s, "/me/tracks")
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// CreateTrack uploads a track as multipart/form-data.
func (s *SoundCloudService) CreateTrack(ctx context.Context, upload TrackUpload) (*models.Track, error) {
	if upload.Asset == nil {
		return nil, fmt.Errorf("%w: no asset data", shared.ErrInvalidInput)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for _, field := range [][2]string{
		{"track[title]", upload.Title},
		{"track[description]", upload.Description},
		{"track[tag_list]", upload.TagList},
	} {
		if err := mw.WriteField(field[0], field[1]); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", field[0], err)
		}
	}

	contentType := upload.ContentType
	if contentType == "" {
		contentType = defaultContentType
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="track[asset_data]"; filename="%s"`, quoteEscaper.Replace(upload.Filename)))
	h.Set("Content-Type", contentType)

	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("failed to create asset part: %w", err)
	}
	if _, err := io.Copy(part, upload.Asset); err != nil {
		return nil, fmt.Errorf("failed to read asset: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish multipart body: %w", err)
	}

	var track models.Track
	if err := s.doRequest(ctx, http.MethodPost, "/tracks", mw.FormDataContentType(), &buf, &track); err != nil {
		return nil, err
	}
	if track.ID == 0 {
		return nil, nil
	}
	return &track, nil
}

// CreatePlaylist creates a playlist with the given tracks.
func (s *SoundCloudService) CreatePlaylist(ctx context.Context, create PlaylistCreate) (*models.Playlist, error) {
	payload := map[string]any{
		"playlist": map[string]any{
			"title":   create.Title,
			"sharing": create.Sharing,
			"tracks":  trackRefs(create.TrackIDs),
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal playlist: %w", err)
	}

	var playlist models.Playlist
	if err := s.doRequest(ctx, http.MethodPost, "/playlists", "application/json", bytes.NewReader(body), &playlist); err != nil {
		return nil, err
	}
	return &playlist, nil
}

// UpdatePlaylist replaces the track list of the playlist at uri.
func (s *SoundCloudService) UpdatePlaylist(ctx context.Context, uri string, trackIDs []int64) error {
	payload := map[string]any{
		"playlist": map[string]any{
			"tracks": trackRefs(trackIDs),
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal playlist update: %w", err)
	}

	return s.doRequest(ctx, http.MethodPut, uri, "application/json", bytes.NewReader(body), nil)
}

// DeleteTrack deletes one of the user's tracks.
func (s *SoundCloudService) DeleteTrack(ctx context.Context, id int64) error {
	return s.doRequest(ctx, http.MethodDelete, "/me/tracks/"+strconv.FormatInt(id, 10), "", nil, nil)
}
