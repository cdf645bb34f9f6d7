package services

import (
	"errors"
	"fmt"
	"testing"

	"backend/database"

	"github.com/glebarez/sqlite"
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

func TestIsSubscribedDefaultsFalse(t *testing.T) {
	db := setupTestDB(t)
	r := NewRegistry()
	if err := r.Register(testService("alpha")); err != nil {
		t.Fatal(err)
	}
	m := NewSubscriptionManager(r)

	subscribed, err := m.IsSubscribed(db, 1, "alpha")
	if err != nil {
		t.Fatal(err)
	}
	if subscribed {
		t.Error("expected unsubscribed by default")
	}
}

func TestAlwaysSubscribedShortCircuits(t *testing.T) {
	db := setupTestDB(t)
	r := NewRegistry()
	svc := testService("clock")
	svc.AlwaysSubscribed = true
	if err := r.Register(svc); err != nil {
		t.Fatal(err)
	}
	m := NewSubscriptionManager(r)

	subscribed, err := m.IsSubscribed(db, 42, "clock")
	if err != nil {
		t.Fatal(err)
	}
	if !subscribed {
		t.Error("expected always-subscribed service to report subscribed")
	}
}

func TestSubscribeUnsubscribeCycle(t *testing.T) {
	db := setupTestDB(t)
	r := NewRegistry()
	if err := r.Register(testService("alpha")); err != nil {
		t.Fatal(err)
	}
	m := NewSubscriptionManager(r)

	sub, err := m.Subscribe(db, 1, "alpha")
	if err != nil {
		t.Fatal(err)
	}
	if !sub.Subscribed || sub.SubscribedAt == nil {
		t.Error("expected subscribed with timestamp")
	}
	if sub.UnsubscribedAt != nil {
		t.Error("expected no unsubscribe timestamp yet")
	}

	sub, err = m.Unsubscribe(db, 1, "alpha")
	if err != nil {
		t.Fatal(err)
	}
	if sub == nil {
		t.Fatal("expected record back from unsubscribe")
	}
	if sub.Subscribed || sub.UnsubscribedAt == nil {
		t.Error("expected unsubscribed with timestamp")
	}

	// Resubscribing keeps the same row and clears the unsubscribe stamp.
	sub, err = m.Subscribe(db, 1, "alpha")
	if err != nil {
		t.Fatal(err)
	}
	if !sub.Subscribed || sub.UnsubscribedAt != nil {
		t.Error("expected resubscribe to clear unsubscribed_at")
	}

	var count int64
	db.Model(&database.UserServiceSubscription{}).Where("user_id = ?", 1).Count(&count)
	if count != 1 {
		t.Errorf("expected a single row per pair, got %d", count)
	}
}

func TestUnsubscribeWithoutRecordReturnsNil(t *testing.T) {
	db := setupTestDB(t)
	r := NewRegistry()
	if err := r.Register(testService("alpha")); err != nil {
		t.Fatal(err)
	}
	m := NewSubscriptionManager(r)

	sub, err := m.Unsubscribe(db, 1, "alpha")
	if err != nil {
		t.Fatal(err)
	}
	if sub != nil {
		t.Error("expected nil when nothing to unsubscribe")
	}
}

func TestUnsubscribeTearsDownWebhooks(t *testing.T) {
	db := setupTestDB(t)
	r := NewRegistry()

	var deleted []uint
	svc := testService("alpha")
	svc.DeleteWebhook = func(db *gorm.DB, userID uint, webhookID uint) error {
		deleted = append(deleted, webhookID)
		var hook database.ExternalWebhook
		if err := db.First(&hook, webhookID).Error; err != nil {
			return err
		}
		return db.Delete(&hook).Error
	}
	if err := r.Register(svc); err != nil {
		t.Fatal(err)
	}
	m := NewSubscriptionManager(r)

	if _, err := m.Subscribe(db, 1, "alpha"); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		hook := database.ExternalWebhook{
			UserId: 1, Service: "alpha", Target: fmt.Sprintf("t%d", i),
			URL: "https://example.test/webhooks/alpha", IsActive: true,
		}
		if err := db.Create(&hook).Error; err != nil {
			t.Fatal(err)
		}
	}

	if _, err := m.Unsubscribe(db, 1, "alpha"); err != nil {
		t.Fatal(err)
	}
	if len(deleted) != 3 {
		t.Errorf("expected 3 teardown calls, got %d", len(deleted))
	}
}

func TestUnsubscribeForceDeactivatesOnTeardownFailure(t *testing.T) {
	db := setupTestDB(t)
	r := NewRegistry()

	svc := testService("alpha")
	svc.DeleteWebhook = func(db *gorm.DB, userID uint, webhookID uint) error {
		return errors.New("provider unreachable")
	}
	if err := r.Register(svc); err != nil {
		t.Fatal(err)
	}
	m := NewSubscriptionManager(r)

	if _, err := m.Subscribe(db, 1, "alpha"); err != nil {
		t.Fatal(err)
	}
	hook := database.ExternalWebhook{
		UserId: 1, Service: "alpha", Target: "t",
		URL: "https://example.test/webhooks/alpha", IsActive: true,
	}
	if err := db.Create(&hook).Error; err != nil {
		t.Fatal(err)
	}

	sub, err := m.Unsubscribe(db, 1, "alpha")
	if err != nil {
		t.Fatal(err)
	}
	if sub == nil || sub.Subscribed {
		t.Error("expected unsubscribe to complete despite teardown failure")
	}

	var after database.ExternalWebhook
	if err := db.First(&after, hook.ID).Error; err != nil {
		t.Fatal(err)
	}
	if after.IsActive {
		t.Error("expected failed webhook to be force-deactivated")
	}
}

func TestAutoSubscribeOnFirstLogin(t *testing.T) {
	db := setupTestDB(t)
	r := NewRegistry()
	if err := r.Register(testService("alpha")); err != nil {
		t.Fatal(err)
	}
	m := NewSubscriptionManager(r)

	sub, err := m.AutoSubscribeOnFirstLogin(db, 1, "alpha")
	if err != nil {
		t.Fatal(err)
	}
	if !sub.Subscribed {
		t.Error("expected first login to subscribe")
	}

	// A user who explicitly unsubscribed stays unsubscribed on later logins.
	if _, err := m.Unsubscribe(db, 1, "alpha"); err != nil {
		t.Fatal(err)
	}
	sub, err = m.AutoSubscribeOnFirstLogin(db, 1, "alpha")
	if err != nil {
		t.Fatal(err)
	}
	if sub.Subscribed {
		t.Error("expected opt-out to be respected on later logins")
	}
}

func TestGetSubscriptionsOrderedByService(t *testing.T) {
	db := setupTestDB(t)
	r := NewRegistry()
	for _, id := range []string{"zeta", "alpha"} {
		if err := r.Register(testService(id)); err != nil {
			t.Fatal(err)
		}
	}
	m := NewSubscriptionManager(r)

	if _, err := m.Subscribe(db, 1, "zeta"); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Subscribe(db, 1, "alpha"); err != nil {
		t.Fatal(err)
	}

	subs, err := m.GetSubscriptions(db, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(subs) != 2 || subs[0].Service != "alpha" || subs[1].Service != "zeta" {
		t.Errorf("expected alphabetical order, got %+v", subs)
	}
}
