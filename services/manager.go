package services

import (
	"errors"
	"log"
	"time"

	"backend/database"

	"gorm.io/gorm"
)

// SubscriptionManager owns the subscribed/unsubscribed state machine per
// (user, service) and the webhook teardown that runs on unsubscribe.
type SubscriptionManager struct {
	registry *Registry
}

func NewSubscriptionManager(registry *Registry) *SubscriptionManager {
	return &SubscriptionManager{registry: registry}
}

// IsSubscribed reports the subscription flag for the pair, defaulting to
// false when no record exists. Modules declared AlwaysSubscribed are
// subscribed regardless of records.
func (m *SubscriptionManager) IsSubscribed(db *gorm.DB, userID uint, service string) (bool, error) {
	if svc := m.registry.Get(service); svc != nil && svc.AlwaysSubscribed {
		return true, nil
	}

	var sub database.UserServiceSubscription
	q := db.Where("user_id = ? AND service = ?", userID, service).First(&sub)
	if errors.Is(q.Error, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if q.Error != nil {
		return false, q.Error
	}
	return sub.Subscribed, nil
}

func (m *SubscriptionManager) GetSubscription(db *gorm.DB, userID uint, service string) (*database.UserServiceSubscription, error) {
	var sub database.UserServiceSubscription
	q := db.Where("user_id = ? AND service = ?", userID, service).First(&sub)
	if errors.Is(q.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if q.Error != nil {
		return nil, q.Error
	}
	return &sub, nil
}

// GetSubscriptions lists every subscription record of the user, ordered by
// service name.
func (m *SubscriptionManager) GetSubscriptions(db *gorm.DB, userID uint) ([]database.UserServiceSubscription, error) {
	var subs []database.UserServiceSubscription
	q := db.Where("user_id = ?", userID).Order("service ASC").Find(&subs)
	return subs, q.Error
}

// Subscribe flips the pair to subscribed, creating the record on first use.
// Calling it while already subscribed just re-stamps subscribed_at.
func (m *SubscriptionManager) Subscribe(db *gorm.DB, userID uint, service string) (*database.UserServiceSubscription, error) {
	now := time.Now()

	sub, err := m.GetSubscription(db, userID, service)
	if err != nil {
		return nil, err
	}

	if sub != nil {
		sub.Subscribed = true
		sub.SubscribedAt = &now
		sub.UnsubscribedAt = nil
	} else {
		sub = &database.UserServiceSubscription{
			UserId:       userID,
			Service:      service,
			Subscribed:   true,
			SubscribedAt: &now,
		}
	}

	if err := db.Save(sub).Error; err != nil {
		return nil, err
	}
	return sub, nil
}

// Unsubscribe tears down the pair's active webhooks best-effort, then flips
// the record to unsubscribed. It returns (nil, nil) when there is nothing to
// unsubscribe. Teardown failures never abort the unsubscribe.
func (m *SubscriptionManager) Unsubscribe(db *gorm.DB, userID uint, service string) (*database.UserServiceSubscription, error) {
	sub, err := m.GetSubscription(db, userID, service)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, nil
	}

	m.deleteActiveWebhooks(db, userID, service)

	now := time.Now()
	sub.Subscribed = false
	sub.UnsubscribedAt = &now

	if err := db.Save(sub).Error; err != nil {
		return nil, err
	}
	return sub, nil
}

// AutoSubscribeOnFirstLogin returns the existing record if the user ever
// touched the service, else silently subscribes them.
func (m *SubscriptionManager) AutoSubscribeOnFirstLogin(db *gorm.DB, userID uint, service string) (*database.UserServiceSubscription, error) {
	existing, err := m.GetSubscription(db, userID, service)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	return m.Subscribe(db, userID, service)
}

// deleteActiveWebhooks attempts remote deletion of every active webhook of
// the pair. A webhook whose remote deletion fails is force-flagged inactive
// locally so bookkeeping stays consistent even when the provider is
// unreachable or the remote webhook is already gone.
func (m *SubscriptionManager) deleteActiveWebhooks(db *gorm.DB, userID uint, service string) {
	var hooks []database.ExternalWebhook
	if err := db.Where("user_id = ? AND service = ? AND is_active = ?", userID, service, true).Find(&hooks).Error; err != nil {
		log.Printf("Warning: failed to list active webhooks for user %d service %s: %v", userID, service, err)
		return
	}

	if len(hooks) == 0 {
		log.Printf("No active webhooks found for user %d service %s", userID, service)
		return
	}

	log.Printf("Deleting %d active webhooks for user %d service %s", len(hooks), userID, service)

	svc := m.registry.Get(service)

	for i := range hooks {
		hook := &hooks[i]

		if svc != nil && svc.DeleteWebhook != nil {
			if err := svc.DeleteWebhook(db, userID, hook.ID); err != nil {
				log.Printf("Warning: failed to delete webhook %d from %s: %v", hook.ID, service, err)
				hook.IsActive = false
				if err := db.Save(hook).Error; err != nil {
					log.Printf("Warning: failed to deactivate webhook %d: %v", hook.ID, err)
				}
				continue
			}
		}

		log.Printf("Successfully deleted webhook %d from %s", hook.ID, service)
	}
}

// EnsureMappingWebhooks provisions the provider-side webhook a mapping needs,
// if any. It is a no-op unless the mapping's action declares a webhook
// pattern. Provisioning failures are logged, never returned: a missing
// webhook degrades the automation to never firing instead of blocking the
// mapping.
func (m *SubscriptionManager) EnsureMappingWebhooks(db *gorm.DB, mapping *database.Mapping, userID uint) {
	svc, action := m.registry.ActionByType(mapping.ActionType)
	if svc == nil || action == nil {
		return
	}
	if action.Metadata.WebhookPattern == "" {
		return
	}
	if svc.EnsureWebhookForMapping == nil {
		return
	}

	if err := svc.EnsureWebhookForMapping(db, mapping, userID, *action); err != nil {
		log.Printf("Warning: failed to ensure webhook for mapping %d (%s): %v", mapping.ID, mapping.ActionType, err)
	}
}
