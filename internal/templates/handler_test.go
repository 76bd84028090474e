package templates_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/nexliaai/corretor/internal/extraction"
	"github.com/nexliaai/corretor/internal/templates"
	"github.com/nexliaai/corretor/pkg/pagination"
)

type mockSystem struct {
	listFn         func(ctx context.Context, page pagination.PageRequest, filters templates.Filters) (*pagination.PageResult[templates.Template], error)
	findFn         func(ctx context.Context, id uuid.UUID) (*templates.Template, error)
	createFn       func(ctx context.Context, cmd templates.CreateCommand) (*templates.Template, error)
	updateFn       func(ctx context.Context, id uuid.UUID, cmd templates.UpdateCommand) (*templates.Template, error)
	deleteFn       func(ctx context.Context, id uuid.UUID) error
	activateFn     func(ctx context.Context, id uuid.UUID) (*templates.Template, error)
	deactivateFn   func(ctx context.Context, id uuid.UUID) (*templates.Template, error)
	activeFn       func(ctx context.Context, category extraction.Category) (*templates.Template, error)
	instructionsFn func(ctx context.Context, category string) (string, bool, error)
}

func (m *mockSystem) Handler() *templates.Handler { return newTestHandler(m) }

func (m *mockSystem) List(ctx context.Context, page pagination.PageRequest, filters templates.Filters) (*pagination.PageResult[templates.Template], error) {
	return m.listFn(ctx, page, filters)
}

func (m *mockSystem) Find(ctx context.Context, id uuid.UUID) (*templates.Template, error) {
	return m.findFn(ctx, id)
}

func (m *mockSystem) Create(ctx context.Context, cmd templates.CreateCommand) (*templates.Template, error) {
	return m.createFn(ctx, cmd)
}

func (m *mockSystem) Update(ctx context.Context, id uuid.UUID, cmd templates.UpdateCommand) (*templates.Template, error) {
	return m.updateFn(ctx, id, cmd)
}

func (m *mockSystem) Delete(ctx context.Context, id uuid.UUID) error {
	return m.deleteFn(ctx, id)
}

func (m *mockSystem) Activate(ctx context.Context, id uuid.UUID) (*templates.Template, error) {
	return m.activateFn(ctx, id)
}

func (m *mockSystem) Deactivate(ctx context.Context, id uuid.UUID) (*templates.Template, error) {
	return m.deactivateFn(ctx, id)
}

func (m *mockSystem) Active(ctx context.Context, category extraction.Category) (*templates.Template, error) {
	return m.activeFn(ctx, category)
}

func (m *mockSystem) Instructions(ctx context.Context, category string) (string, bool, error) {
	return m.instructionsFn(ctx, category)
}

func newTestHandler(sys templates.System) *templates.Handler {
	return templates.NewHandler(
		sys,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		pagination.Config{DefaultPageSize: 20, MaxPageSize: 100},
	)
}

func setupMux(h *templates.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	group := h.Routes()
	for _, route := range group.Routes {
		mux.HandleFunc(route.Method+" "+group.Prefix+route.Pattern, route.Handler)
	}
	return mux
}

func sampleTemplate() templates.Template {
	return templates.Template{
		ID:           uuid.MustParse("550e8400-e29b-41d4-a716-446655440000"),
		Name:         "auto-curta",
		Category:     extraction.CategoryAutoPolicy,
		Instructions: "Extraia apenas os campos principais.",
		Description:  ptr("Versão enxuta"),
	}
}

func TestHandlerList(t *testing.T) {
	tpl := sampleTemplate()
	var captured templates.Filters

	sys := &mockSystem{
		listFn: func(_ context.Context, _ pagination.PageRequest, f templates.Filters) (*pagination.PageResult[templates.Template], error) {
			captured = f
			result := pagination.NewPageResult([]templates.Template{tpl}, 1, 1, 20)
			return &result, nil
		},
	}

	rec := httptest.NewRecorder()
	setupMux(newTestHandler(sys)).ServeHTTP(rec, httptest.NewRequest("GET", "/templates?category=apolice_auto", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var result pagination.PageResult[templates.Template]
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(result.Data) != 1 || result.Data[0].ID != tpl.ID {
		t.Errorf("data = %+v, want [%v]", result.Data, tpl.ID)
	}
	if captured.Category == nil || *captured.Category != extraction.CategoryAutoPolicy {
		t.Errorf("category filter = %v, want apolice_auto", captured.Category)
	}
}

func TestHandlerCategories(t *testing.T) {
	rec := httptest.NewRecorder()
	setupMux(newTestHandler(&mockSystem{})).ServeHTTP(rec, httptest.NewRequest("GET", "/templates/categories", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var got []extraction.Category
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != len(extraction.Categories()) {
		t.Errorf("categories = %v, want %v", got, extraction.Categories())
	}
}

func TestHandlerFind(t *testing.T) {
	tpl := sampleTemplate()
	sys := &mockSystem{
		findFn: func(_ context.Context, id uuid.UUID) (*templates.Template, error) {
			if id != tpl.ID {
				return nil, templates.ErrNotFound
			}
			return &tpl, nil
		},
	}
	mux := setupMux(newTestHandler(sys))

	tests := []struct {
		name string
		path string
		want int
	}{
		{"found", "/templates/" + tpl.ID.String(), http.StatusOK},
		{"not found", "/templates/" + uuid.NewString(), http.StatusNotFound},
		{"invalid id", "/templates/not-a-uuid", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest("GET", tt.path, nil))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestHandlerDefault(t *testing.T) {
	mux := setupMux(newTestHandler(&mockSystem{}))

	t.Run("known category", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("GET", "/templates/apolice_auto/default", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}

		var got templates.CategoryContent
		if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if got.Instructions != extraction.Instructions(extraction.CategoryAutoPolicy) {
			t.Error("instructions do not match the built-in default")
		}
		if got.Spec != extraction.Spec(extraction.CategoryAutoPolicy) {
			t.Error("spec does not match the built-in spec")
		}
	})

	t.Run("invalid category", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("GET", "/templates/Apolice-Auto/default", nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestHandlerEffective(t *testing.T) {
	t.Run("override", func(t *testing.T) {
		sys := &mockSystem{
			instructionsFn: func(_ context.Context, category string) (string, bool, error) {
				return "override " + category, true, nil
			},
		}

		rec := httptest.NewRecorder()
		setupMux(newTestHandler(sys)).ServeHTTP(rec, httptest.NewRequest("GET", "/templates/apolice/instructions", nil))

		var got templates.CategoryContent
		if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if !got.Override || got.Instructions != "override apolice" {
			t.Errorf("content = %+v, want override", got)
		}
	})

	t.Run("fallback to default", func(t *testing.T) {
		sys := &mockSystem{
			instructionsFn: func(_ context.Context, _ string) (string, bool, error) {
				return "", false, nil
			},
		}

		rec := httptest.NewRecorder()
		setupMux(newTestHandler(sys)).ServeHTTP(rec, httptest.NewRequest("GET", "/templates/rg/instructions", nil))

		var got templates.CategoryContent
		if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if got.Override || got.Instructions != extraction.Instructions("rg") {
			t.Errorf("content = %+v, want built-in default", got)
		}
	})
}

func TestHandlerCreate(t *testing.T) {
	tpl := sampleTemplate()

	t.Run("created", func(t *testing.T) {
		var captured templates.CreateCommand
		sys := &mockSystem{
			createFn: func(_ context.Context, cmd templates.CreateCommand) (*templates.Template, error) {
				captured = cmd
				return &tpl, nil
			},
		}

		body, _ := json.Marshal(templates.CreateCommand{
			Name:         tpl.Name,
			Category:     tpl.Category,
			Instructions: tpl.Instructions,
		})

		rec := httptest.NewRecorder()
		setupMux(newTestHandler(sys)).ServeHTTP(rec, httptest.NewRequest("POST", "/templates", bytes.NewReader(body)))

		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, want 201", rec.Code)
		}
		if captured.Category != extraction.CategoryAutoPolicy {
			t.Errorf("category = %q, want apolice_auto", captured.Category)
		}
	})

	t.Run("validation error", func(t *testing.T) {
		sys := &mockSystem{
			createFn: func(_ context.Context, _ templates.CreateCommand) (*templates.Template, error) {
				return nil, templates.ErrInvalid
			},
		}

		rec := httptest.NewRecorder()
		setupMux(newTestHandler(sys)).ServeHTTP(rec, httptest.NewRequest("POST", "/templates", bytes.NewReader([]byte(`{}`))))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		rec := httptest.NewRecorder()
		setupMux(newTestHandler(&mockSystem{})).ServeHTTP(rec, httptest.NewRequest("POST", "/templates", bytes.NewReader([]byte(`{`))))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestHandlerActivation(t *testing.T) {
	tpl := sampleTemplate()
	sys := &mockSystem{
		activateFn: func(_ context.Context, _ uuid.UUID) (*templates.Template, error) {
			active := tpl
			active.Active = true
			return &active, nil
		},
		deactivateFn: func(_ context.Context, _ uuid.UUID) (*templates.Template, error) {
			return nil, templates.ErrNotFound
		},
	}
	mux := setupMux(newTestHandler(sys))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("POST", "/templates/"+tpl.ID.String()+"/activate", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("activate status = %d, want 200", rec.Code)
	}

	var got templates.Template
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !got.Active {
		t.Error("template not active")
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("POST", "/templates/"+tpl.ID.String()+"/deactivate", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("deactivate status = %d, want 404", rec.Code)
	}
}

func TestHandlerDelete(t *testing.T) {
	sys := &mockSystem{
		deleteFn: func(_ context.Context, _ uuid.UUID) error { return nil },
	}

	rec := httptest.NewRecorder()
	setupMux(newTestHandler(sys)).ServeHTTP(rec, httptest.NewRequest("DELETE", "/templates/"+uuid.NewString(), nil))

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
}
