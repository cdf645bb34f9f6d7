package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"backend/database"

	"golang.org/x/oauth2"
	"gorm.io/gorm"
)

// providerTimeout bounds every outbound call to a provider. Providers that
// hang past it get an error instead of stalling the request.
const providerTimeout = 10 * time.Second

// Profile is the normalized identity a connector extracts from a provider's
// profile endpoint.
type Profile struct {
	ID       string
	Email    string
	Username string
}

// Connector wraps a provider's OAuth2 app configuration. Login and subscribe
// flows share the connector but request different scope sets.
type Connector struct {
	Provider        string
	Endpoint        oauth2.Endpoint
	ClientID        string
	ClientSecret    string
	RedirectURL     string
	LoginScopes     []string
	SubscribeScopes []string

	// ProfileURL is fetched with the fresh token after the code exchange.
	ProfileURL    string
	DecodeProfile func(body []byte) (*Profile, error)

	// FetchEmail backfills the email when the profile endpoint omits it
	// (private emails on some providers). Optional.
	FetchEmail func(ctx context.Context, client *http.Client) (string, error)

	// AuthURLParams are appended to every authorization URL, for providers
	// that need extras like access_type=offline.
	AuthURLParams []oauth2.AuthCodeOption
}

// Configured reports whether client credentials were supplied via the
// environment. Unconfigured connectors keep their module registered but make
// every OAuth route answer 503.
func (c *Connector) Configured() bool {
	return c != nil && c.ClientID != "" && c.ClientSecret != ""
}

func (c *Connector) config(subscribe bool) *oauth2.Config {
	scopes := c.LoginScopes
	if subscribe {
		scopes = c.SubscribeScopes
	}
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Endpoint:     c.Endpoint,
		RedirectURL:  c.RedirectURL,
		Scopes:       scopes,
	}
}

// AuthCodeURL builds the provider authorization URL carrying the flow state.
func (c *Connector) AuthCodeURL(state string, subscribe bool) string {
	return c.config(subscribe).AuthCodeURL(state, c.AuthURLParams...)
}

// Exchange swaps the callback code for a token set. The call is bounded so a
// stalled provider cannot hold the callback handler open.
func (c *Connector) Exchange(ctx context.Context, code string, subscribe bool) (*oauth2.Token, error) {
	ctx, cancel := context.WithTimeout(ctx, providerTimeout)
	defer cancel()

	token, err := c.config(subscribe).Exchange(ctx, code)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			log.Printf("Warning: token exchange with %s timed out after %s", c.Provider, providerTimeout)
		}
		return nil, err
	}
	return token, nil
}

// FetchProfile retrieves and decodes the provider profile, backfilling the
// email through FetchEmail when the profile carries none.
func (c *Connector) FetchProfile(ctx context.Context, token *oauth2.Token) (*Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, providerTimeout)
	defer cancel()

	client := c.config(false).Client(ctx, token)
	resp, err := client.Get(c.ProfileURL)
	if err != nil {
		return nil, fmt.Errorf("fetching %s profile: %w", c.Provider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s profile: status %d", c.Provider, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	profile, err := c.DecodeProfile(body)
	if err != nil {
		return nil, fmt.Errorf("decoding %s profile: %w", c.Provider, err)
	}
	if profile.ID == "" {
		return nil, fmt.Errorf("%s profile has no id", c.Provider)
	}

	if c.FetchEmail != nil && c.missingEmail(profile.Email) {
		email, err := c.FetchEmail(ctx, client)
		if err != nil {
			log.Printf("Warning: failed to fetch %s email: %v", c.Provider, err)
		} else {
			profile.Email = email
		}
	}

	return profile, nil
}

// PlaceholderEmail is used when a provider never discloses one, keeping the
// unique email column satisfied.
func (c *Connector) PlaceholderEmail(providerId string) string {
	return fmt.Sprintf("%s@%s.oauth", providerId, c.Provider)
}

// missingEmail reports whether the profile email still needs a lookup. A
// previously minted placeholder counts as missing so a later flow with wider
// scopes can replace it with the real address.
func (c *Connector) missingEmail(email string) bool {
	return email == "" || strings.HasSuffix(email, "@"+c.Provider+".oauth")
}

// StoreToken upserts the user's token set for this provider, recording the
// scopes it was granted under. A re-connect replaces the previous tokens and
// clears any revocation.
func (c *Connector) StoreToken(db *gorm.DB, userID uint, token *oauth2.Token, scopes []string) error {
	var expiresAt *time.Time
	if !token.Expiry.IsZero() {
		t := token.Expiry
		expiresAt = &t
	}

	var record database.UserToken
	q := db.Where("user_id = ? AND provider = ?", userID, c.Provider).First(&record)
	if q.Error != nil && !errors.Is(q.Error, gorm.ErrRecordNotFound) {
		return q.Error
	}

	record.UserId = userID
	record.Provider = c.Provider
	record.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		record.RefreshToken = token.RefreshToken
	}
	record.TokenType = token.TokenType
	record.ExpiresAt = expiresAt
	if len(scopes) > 0 {
		record.Scopes = database.JoinScopes(scopes)
	}
	record.IsRevoked = false
	record.RevokedAt = nil
	record.RevokedReason = ""

	return db.Save(&record).Error
}

// Token returns a usable token for the user, refreshing through the
// provider when the stored one expired and a refresh token exists. Returns
// nil without error when the user has no usable token.
func (c *Connector) Token(db *gorm.DB, userID uint) (*oauth2.Token, error) {
	var record database.UserToken
	q := db.Where("user_id = ? AND provider = ?", userID, c.Provider).First(&record)
	if errors.Is(q.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if q.Error != nil {
		return nil, q.Error
	}
	if record.IsRevoked {
		return nil, nil
	}

	token := &oauth2.Token{
		AccessToken:  record.AccessToken,
		RefreshToken: record.RefreshToken,
		TokenType:    record.TokenType,
	}
	if record.ExpiresAt != nil {
		token.Expiry = *record.ExpiresAt
	}

	if !record.Expired() {
		return token, nil
	}
	if record.RefreshToken == "" {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), providerTimeout)
	defer cancel()

	fresh, err := c.config(false).TokenSource(ctx, token).Token()
	if err != nil {
		log.Printf("Warning: failed to refresh %s token for user %d: %v", c.Provider, userID, err)
		return nil, nil
	}
	if err := c.StoreToken(db, userID, fresh, record.ScopeList()); err != nil {
		return nil, err
	}
	return fresh, nil
}

// RevokeToken marks the stored token unusable without deleting the record.
func (c *Connector) RevokeToken(db *gorm.DB, userID uint, reason string) error {
	now := time.Now()
	q := db.Model(&database.UserToken{}).
		Where("user_id = ? AND provider = ?", userID, c.Provider).
		Updates(map[string]interface{}{
			"is_revoked":     true,
			"revoked_at":     &now,
			"revoked_reason": reason,
		})
	if q.Error != nil {
		return q.Error
	}
	if q.RowsAffected == 0 {
		return fmt.Errorf("no %s token stored for user %d", c.Provider, userID)
	}
	return nil
}
