package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"backend/database"
	"backend/services"

	"github.com/glebarez/sqlite"
	"golang.org/x/oauth2"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	if err := db.AutoMigrate(database.Tables...); err != nil {
		t.Fatalf("migrating test database: %v", err)
	}
	return db
}

// fakeProvider serves the token and profile endpoints of an OAuth provider.
func fakeProvider(t *testing.T, profile string) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"tok","token_type":"Bearer"}`))
	})
	mux.HandleFunc("/profile", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(profile))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func oauthModule(id string, srv *httptest.Server) *services.Service {
	return &services.Service{
		ID:          id,
		Name:        id,
		Description: "test",
		Version:     "1.0.0",
		Actions:     []services.ActionDefinition{},
		Reactions:   []services.ReactionDefinition{},
		OAuth: &services.OAuthSettings{
			Enabled:       true,
			SupportsLogin: true,
			Connector: &services.Connector{
				Provider:     id,
				ClientID:     "client",
				ClientSecret: "secret",
				Endpoint: oauth2.Endpoint{
					AuthURL:   srv.URL + "/auth",
					TokenURL:  srv.URL + "/token",
					AuthStyle: oauth2.AuthStyleInParams,
				},
				ProfileURL: srv.URL + "/profile",
				DecodeProfile: func(data []byte) (*services.Profile, error) {
					var p services.Profile
					if err := json.Unmarshal(data, &p); err != nil {
						return nil, err
					}
					return &p, nil
				},
			},
		},
	}
}

func testOAuthHandler(t *testing.T, modules ...*services.Service) (*OAuthHandler, *gorm.DB) {
	t.Helper()

	db := setupTestDB(t)
	registry := services.NewRegistry()
	for _, m := range modules {
		if err := registry.Register(m); err != nil {
			t.Fatal(err)
		}
	}

	h := &OAuthHandler{
		Registry:    registry,
		Manager:     services.NewSubscriptionManager(registry),
		States:      services.NewStateStore(time.Minute),
		FrontendURL: "http://frontend.test",
	}
	return h, db
}

func TestResolveUserPrefersProviderLink(t *testing.T) {
	db := setupTestDB(t)
	connector := &services.Connector{Provider: "beta"}

	linked := database.User{Name: "linked", Email: "linked@example.test"}
	if err := db.Create(&linked).Error; err != nil {
		t.Fatal(err)
	}
	byEmail := database.User{Name: "other", Email: "octo@example.test"}
	if err := db.Create(&byEmail).Error; err != nil {
		t.Fatal(err)
	}
	link := database.UserOAuthProvider{UserId: linked.ID, Provider: "beta", ProviderId: "42"}
	if err := db.Create(&link).Error; err != nil {
		t.Fatal(err)
	}

	profile := &services.Profile{ID: "42", Email: "octo@example.test"}
	user, err := resolveUser(db, "beta", profile, connector)
	if err != nil {
		t.Fatal(err)
	}
	if user.ID != linked.ID {
		t.Errorf("expected provider link to win over the email match, got user %d", user.ID)
	}
}

func TestResolveUserMatchesByEmail(t *testing.T) {
	db := setupTestDB(t)
	connector := &services.Connector{Provider: "beta"}

	existing := database.User{Name: "octo", Email: "octo@example.test"}
	if err := db.Create(&existing).Error; err != nil {
		t.Fatal(err)
	}

	profile := &services.Profile{ID: "42", Email: "octo@example.test"}
	user, err := resolveUser(db, "beta", profile, connector)
	if err != nil {
		t.Fatal(err)
	}
	if user.ID != existing.ID {
		t.Errorf("expected email match, got user %d", user.ID)
	}
}

func TestResolveUserCreatesPlaceholderAccount(t *testing.T) {
	db := setupTestDB(t)
	connector := &services.Connector{Provider: "beta"}

	profile := &services.Profile{ID: "42"}
	user, err := resolveUser(db, "beta", profile, connector)
	if err != nil {
		t.Fatal(err)
	}
	if user.Email != "42@beta.oauth" {
		t.Errorf("expected placeholder email, got %q", user.Email)
	}
	if user.Name != user.Email {
		t.Errorf("expected name to fall back to the email, got %q", user.Name)
	}
}

func TestConnectProviderNeverCreatesUsers(t *testing.T) {
	srv := fakeProvider(t, `{"ID":"42"}`)
	svc := oauthModule("beta", srv)
	h, db := testOAuthHandler(t, svc)

	profile := &services.Profile{ID: "42"}
	token := &oauth2.Token{AccessToken: "tok"}
	if err := h.connectProvider(db, svc, 99, profile, token); err == nil {
		t.Fatal("expected an error for an unknown user id")
	}

	var count int64
	if err := db.Model(&database.User{}).Count(&count).Error; err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("expected no accounts to be created, found %d", count)
	}
}

func TestCallbackSubscribeRedirectsToInstallPage(t *testing.T) {
	srv := fakeProvider(t, `{"ID":"42","Email":"octo@example.test"}`)
	svc := oauthModule("beta", srv)
	svc.SubscribeURL = func(db *gorm.DB, userID uint) (string, bool) {
		return fmt.Sprintf("https://provider.test/install?state=%d", userID), true
	}
	h, db := testOAuthHandler(t, svc)

	user := database.User{Name: "octo", Email: "octo@example.test"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatal(err)
	}

	key := h.States.Put(services.FlowState{Service: "beta", UserID: user.ID, Subscribe: true})

	r := httptest.NewRequest("GET", "/oauth/beta/callback?code=abc&state="+key, nil)
	r.SetPathValue("service", "beta")
	r = r.WithContext(context.WithValue(r.Context(), "db", db))

	w := httptest.NewRecorder()
	h.Callback(w, r)
	if w.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d: %s", w.Code, w.Body.String())
	}
	want := fmt.Sprintf("https://provider.test/install?state=%d", user.ID)
	if loc := w.Header().Get("Location"); loc != want {
		t.Errorf("expected install redirect %s, got %s", want, loc)
	}

	// The token must already be stored by the time the user lands on the
	// install page.
	token, err := svc.OAuth.Connector.Token(db, user.ID)
	if err != nil || token == nil {
		t.Errorf("expected a stored token after the callback, got %v, %v", token, err)
	}
}
