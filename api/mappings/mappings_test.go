package mappings

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"backend/database"
	"backend/services"

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

func repoService() *services.Service {
	return &services.Service{
		ID:          "github",
		Name:        "GitHub",
		Description: "test",
		Version:     "1.0.0",
		Actions: []services.ActionDefinition{
			{
				ID:   "push",
				Name: "Push",
				ConfigSchema: json.RawMessage(`{
					"type": "object",
					"properties": {
						"repository": {"type": "string"}
					},
					"required": ["repository"]
				}`),
			},
		},
		Reactions: []services.ReactionDefinition{},
	}
}

func testHandler(t *testing.T) (*MappingsHandler, *gorm.DB, *database.User) {
	t.Helper()

	db := setupTestDB(t)
	registry := services.NewRegistry()
	if err := registry.Register(repoService()); err != nil {
		t.Fatal(err)
	}

	user := &database.User{Name: "tester", Email: "tester@example.test"}
	if err := db.Create(user).Error; err != nil {
		t.Fatal(err)
	}

	return &MappingsHandler{
		Registry: registry,
		Manager:  services.NewSubscriptionManager(registry),
	}, db, user
}

func createRequest(db *gorm.DB, user *database.User, body string) *http.Request {
	r := httptest.NewRequest("POST", "/mappings/create", strings.NewReader(body))
	ctx := context.WithValue(r.Context(), "db", db)
	ctx = context.WithValue(ctx, "user", user)
	return r.WithContext(ctx)
}

func TestCreateMapping(t *testing.T) {
	h, db, user := testHandler(t)

	w := httptest.NewRecorder()
	h.Create(w, createRequest(db, user, `{
		"name": "notify on push",
		"action_type": "github.push",
		"action_config": {"repository": "o/r"}
	}`))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var mapping database.Mapping
	if err := db.First(&mapping, "name = ?", "notify on push").Error; err != nil {
		t.Fatal(err)
	}
	if mapping.ActionType != "github.push" || !mapping.IsActive || mapping.CreatedBy != user.ID {
		t.Errorf("unexpected mapping row: %+v", mapping)
	}
}

func TestCreateMappingUnknownAction(t *testing.T) {
	h, db, user := testHandler(t)

	w := httptest.NewRecorder()
	h.Create(w, createRequest(db, user, `{
		"name": "x",
		"action_type": "github.nope",
		"action_config": {}
	}`))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestCreateMappingInvalidConfig(t *testing.T) {
	h, db, user := testHandler(t)

	w := httptest.NewRecorder()
	h.Create(w, createRequest(db, user, `{
		"name": "x",
		"action_type": "github.push",
		"action_config": {"repository": 42}
	}`))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for schema violation, got %d: %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	h.Create(w, createRequest(db, user, `{
		"name": "y",
		"action_type": "github.push",
		"action_config": {}
	}`))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing required field, got %d", w.Code)
	}
}

func TestCreateMappingDuplicateName(t *testing.T) {
	h, db, user := testHandler(t)

	body := `{
		"name": "dup",
		"action_type": "github.push",
		"action_config": {"repository": "o/r"}
	}`

	w := httptest.NewRecorder()
	h.Create(w, createRequest(db, user, body))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	h.Create(w, createRequest(db, user, body))
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 on duplicate name, got %d", w.Code)
	}
}

func TestToggleActive(t *testing.T) {
	h, db, user := testHandler(t)

	mapping := database.Mapping{
		Name: "t", ActionType: "github.push",
		ActionConfig: json.RawMessage(`{"repository":"o/r"}`),
		Reactions:    json.RawMessage(`[]`),
		IsActive:     true, CreatedBy: user.ID,
	}
	if err := db.Create(&mapping).Error; err != nil {
		t.Fatal(err)
	}

	r := httptest.NewRequest("POST", "/mappings/1/toggle", nil)
	r.SetPathValue("mapping_id", fmt.Sprintf("%d", mapping.ID))
	ctx := context.WithValue(r.Context(), "db", db)
	ctx = context.WithValue(ctx, "user", user)
	w := httptest.NewRecorder()
	h.ToggleActive(w, r.WithContext(ctx))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var after database.Mapping
	db.First(&after, mapping.ID)
	if after.IsActive {
		t.Error("expected mapping to be paused")
	}
}
