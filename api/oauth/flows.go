package oauth

import (
	"errors"
	"fmt"
	"log"
	"time"

	"backend/database"
	"backend/services"

	"golang.org/x/oauth2"
	"gorm.io/gorm"
)

// oauthLogin resolves the provider identity to a local account, creating one
// when neither the provider link nor the email matches. Used only by login
// flows, never by subscribe flows.
func (h *OAuthHandler) oauthLogin(DB *gorm.DB, svc *services.Service, profile *services.Profile, token *oauth2.Token) (*database.User, error) {
	connector := svc.OAuth.Connector

	user, err := resolveUser(DB, svc.ID, profile, connector)
	if err != nil {
		return nil, err
	}

	if err := upsertLink(DB, user.ID, svc.ID, profile, database.ConnectionTypeAuth); err != nil {
		return nil, err
	}
	if err := connector.StoreToken(DB, user.ID, token, connector.LoginScopes); err != nil {
		return nil, err
	}

	// A successful provider login proves control of the linked identity.
	if !user.EmailVerified {
		user.EmailVerified = true
		if err := DB.Save(user).Error; err != nil {
			return nil, err
		}
	}
	if err := user.StampLastLogin(DB); err != nil {
		return nil, err
	}

	if _, err := h.Manager.AutoSubscribeOnFirstLogin(DB, user.ID, svc.ID); err != nil {
		log.Printf("Warning: auto-subscribe to %s for user %d failed: %v", svc.ID, user.ID, err)
	}

	return user, nil
}

// connectProvider links the provider identity to an existing account and
// subscribes it. It never creates accounts.
func (h *OAuthHandler) connectProvider(DB *gorm.DB, svc *services.Service, userID uint, profile *services.Profile, token *oauth2.Token) error {
	var user database.User
	if err := DB.First(&user, userID).Error; err != nil {
		return fmt.Errorf("resolving user %d: %w", userID, err)
	}

	if err := upsertLink(DB, user.ID, svc.ID, profile, database.ConnectionTypeService); err != nil {
		return err
	}
	connector := svc.OAuth.Connector
	if err := connector.StoreToken(DB, user.ID, token, connector.SubscribeScopes); err != nil {
		return err
	}

	if _, err := h.Manager.Subscribe(DB, user.ID, svc.ID); err != nil {
		log.Printf("Warning: subscribing user %d to %s failed: %v", user.ID, svc.ID, err)
	}
	return nil
}

func resolveUser(DB *gorm.DB, provider string, profile *services.Profile, connector *services.Connector) (*database.User, error) {
	var link database.UserOAuthProvider
	q := DB.Where("provider = ? AND provider_id = ?", provider, profile.ID).First(&link)
	if q.Error == nil {
		var user database.User
		if err := DB.First(&user, link.UserId).Error; err != nil {
			return nil, err
		}
		return &user, nil
	}
	if !errors.Is(q.Error, gorm.ErrRecordNotFound) {
		return nil, q.Error
	}

	if profile.Email != "" {
		var user database.User
		q := DB.First(&user, "email = ?", profile.Email)
		if q.Error == nil {
			return &user, nil
		}
		if !errors.Is(q.Error, gorm.ErrRecordNotFound) {
			return nil, q.Error
		}
	}

	email := profile.Email
	if email == "" {
		email = connector.PlaceholderEmail(profile.ID)
	}
	name := profile.Username
	if name == "" {
		name = email
	}

	user := database.User{
		Name:  name,
		Email: email,
	}
	if err := DB.Create(&user).Error; err != nil {
		return nil, err
	}
	log.Printf("Created account %d from %s login", user.ID, provider)
	return &user, nil
}

func upsertLink(DB *gorm.DB, userID uint, provider string, profile *services.Profile, connectionType string) error {
	now := time.Now()

	var link database.UserOAuthProvider
	q := DB.Where("user_id = ? AND provider = ?", userID, provider).First(&link)
	if q.Error != nil && !errors.Is(q.Error, gorm.ErrRecordNotFound) {
		return q.Error
	}

	link.UserId = userID
	link.Provider = provider
	link.ProviderId = profile.ID
	link.ConnectionType = connectionType
	link.ProviderEmail = profile.Email
	link.ProviderUsername = profile.Username
	link.LastUsedAt = &now

	return DB.Save(&link).Error
}
