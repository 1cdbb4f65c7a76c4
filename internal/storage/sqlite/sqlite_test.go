package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mmynk/pricebook/internal/models"
	"github.com/mmynk/pricebook/internal/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func product(groupID, name string, updatedAt int64) *models.Product {
	return &models.Product{
		GroupID:   groupID,
		Name:      name,
		Type:      "White",
		Brand:     "BrandX",
		Unit:      "5 kg",
		Price:     decimal.RequireFromString("25.99"),
		UnitPrice: "$5.20/kg",
		CreatedAt: updatedAt,
		UpdatedAt: updatedAt,
	}
}

func TestProducts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("CreateProduct generates ID and timestamps", func(t *testing.T) {
		p := &models.Product{GroupID: "g-ids", Name: "Rice", Unit: "5 kg", Price: decimal.NewFromInt(10)}
		if err := store.CreateProduct(ctx, p); err != nil {
			t.Fatalf("CreateProduct failed: %v", err)
		}
		if p.ID == "" {
			t.Error("Expected product ID to be generated")
		}
		if p.CreatedAt == 0 || p.UpdatedAt != p.CreatedAt {
			t.Errorf("Expected CreatedAt set and UpdatedAt == CreatedAt, got %d/%d", p.CreatedAt, p.UpdatedAt)
		}
	})

	t.Run("ListProducts returns group records newest first", func(t *testing.T) {
		for i, name := range []string{"Rice", "Beans", "Coffee"} {
			if err := store.CreateProduct(ctx, product("g-list", name, int64(100+i))); err != nil {
				t.Fatalf("CreateProduct failed: %v", err)
			}
		}
		if err := store.CreateProduct(ctx, product("g-other", "Rice", 500)); err != nil {
			t.Fatalf("CreateProduct failed: %v", err)
		}

		got, err := store.ListProducts(ctx, storage.ProductQuery{GroupID: "g-list"})
		if err != nil {
			t.Fatalf("ListProducts failed: %v", err)
		}
		if len(got) != 3 {
			t.Fatalf("Expected 3 products, got %d", len(got))
		}
		want := []string{"Coffee", "Beans", "Rice"}
		for i, p := range got {
			if p.Name != want[i] {
				t.Errorf("product[%d] = %s, want %s", i, p.Name, want[i])
			}
			if p.GroupID != "g-list" {
				t.Errorf("product[%d] leaked from group %s", i, p.GroupID)
			}
		}
		if !got[0].Price.Equal(decimal.RequireFromString("25.99")) {
			t.Errorf("price = %s, want 25.99", got[0].Price)
		}
	})

	t.Run("ListProducts filters by name and limit", func(t *testing.T) {
		for i, name := range []string{"White Rice", "Brown Rice", "Rice Flour", "Milk"} {
			if err := store.CreateProduct(ctx, product("g-search", name, int64(200+i))); err != nil {
				t.Fatalf("CreateProduct failed: %v", err)
			}
		}

		got, err := store.ListProducts(ctx, storage.ProductQuery{GroupID: "g-search", NameContains: "rICE"})
		if err != nil {
			t.Fatalf("ListProducts failed: %v", err)
		}
		if len(got) != 3 {
			t.Errorf("Expected 3 rice products, got %d", len(got))
		}

		got, err = store.ListProducts(ctx, storage.ProductQuery{GroupID: "g-search", NameContains: "rice", Limit: 2})
		if err != nil {
			t.Fatalf("ListProducts failed: %v", err)
		}
		if len(got) != 2 {
			t.Errorf("Expected limit of 2, got %d", len(got))
		}
	})

	t.Run("ListProducts folds accented names", func(t *testing.T) {
		for i, name := range []string{"Água Mineral", "Açúcar Refinado", "Pão De Queijo"} {
			if err := store.CreateProduct(ctx, product("g-accents", name, int64(250+i))); err != nil {
				t.Fatalf("CreateProduct failed: %v", err)
			}
		}

		tests := []struct {
			term string
			want string
		}{
			{"água", "Água Mineral"},
			{"ÁGUA MINERAL", "Água Mineral"},
			{"açú", "Açúcar Refinado"},
			{"AÇÚCAR", "Açúcar Refinado"},
			{"pão", "Pão De Queijo"},
		}
		for _, tt := range tests {
			got, err := store.ListProducts(ctx, storage.ProductQuery{GroupID: "g-accents", NameContains: tt.term})
			if err != nil {
				t.Fatalf("ListProducts(%q) failed: %v", tt.term, err)
			}
			if len(got) != 1 || got[0].Name != tt.want {
				t.Errorf("ListProducts(%q) = %v, want only %s", tt.term, got, tt.want)
			}
		}
	})

	t.Run("UpdateProductPrice is scoped to the group", func(t *testing.T) {
		p := product("g-update", "Rice", 300)
		if err := store.CreateProduct(ctx, p); err != nil {
			t.Fatalf("CreateProduct failed: %v", err)
		}

		n, err := store.UpdateProductPrice(ctx, "g-intruder", p.ID, decimal.NewFromInt(1), "$0.20/kg", 301)
		if err != nil {
			t.Fatalf("UpdateProductPrice failed: %v", err)
		}
		if n != 0 {
			t.Errorf("Expected foreign group update to affect 0 rows, got %d", n)
		}

		n, err = store.UpdateProductPrice(ctx, "g-update", p.ID, decimal.RequireFromString("30.00"), "$6.00/kg", 302)
		if err != nil {
			t.Fatalf("UpdateProductPrice failed: %v", err)
		}
		if n != 1 {
			t.Fatalf("Expected 1 affected row, got %d", n)
		}

		got, err := store.ListProducts(ctx, storage.ProductQuery{GroupID: "g-update", ID: p.ID})
		if err != nil || len(got) != 1 {
			t.Fatalf("ListProducts by ID = %v, %v", got, err)
		}
		if got[0].UnitPrice != "$6.00/kg" || got[0].UpdatedAt != 302 || got[0].CreatedAt != 300 {
			t.Errorf("unexpected record after update: %+v", got[0])
		}
	})

	t.Run("DeleteProduct is scoped and not repeatable", func(t *testing.T) {
		p := product("g-delete", "Rice", 400)
		if err := store.CreateProduct(ctx, p); err != nil {
			t.Fatalf("CreateProduct failed: %v", err)
		}

		if n, _ := store.DeleteProduct(ctx, "g-intruder", p.ID); n != 0 {
			t.Errorf("Expected foreign group delete to affect 0 rows, got %d", n)
		}
		if n, _ := store.DeleteProduct(ctx, "g-delete", p.ID); n != 1 {
			t.Errorf("Expected delete to affect 1 row, got %d", n)
		}
		if n, _ := store.DeleteProduct(ctx, "g-delete", p.ID); n != 0 {
			t.Errorf("Expected replayed delete to affect 0 rows, got %d", n)
		}
	})
}

func TestMemberships(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	m, err := store.GetMembership(ctx, "42")
	if err != nil {
		t.Fatalf("GetMembership failed: %v", err)
	}
	if m != nil {
		t.Fatalf("Expected no membership, got %+v", m)
	}

	if has, _ := store.GroupHasMembers(ctx, "g1"); has {
		t.Error("Expected empty group to have no members")
	}

	if err := store.CreateMembership(ctx, &models.Membership{UserID: "42", GroupID: "g1", JoinedAt: 1}); err != nil {
		t.Fatalf("CreateMembership failed: %v", err)
	}
	if has, _ := store.GroupHasMembers(ctx, "g1"); !has {
		t.Error("Expected g1 to have members")
	}

	n, err := store.UpdateMembership(ctx, "42", "g2", 2)
	if err != nil || n != 1 {
		t.Fatalf("UpdateMembership = %d, %v", n, err)
	}

	m, err = store.GetMembership(ctx, "42")
	if err != nil || m == nil {
		t.Fatalf("GetMembership = %v, %v", m, err)
	}
	if m.GroupID != "g2" || m.JoinedAt != 2 {
		t.Errorf("membership = %+v, want group g2 joined at 2", m)
	}
	if has, _ := store.GroupHasMembers(ctx, "g1"); has {
		t.Error("Expected g1 to be empty after the move")
	}

	if n, _ := store.UpdateMembership(ctx, "missing", "g2", 3); n != 0 {
		t.Errorf("Expected update of unknown user to affect 0 rows, got %d", n)
	}
}

func TestMigrationAddsNameKey(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "legacy.db")

	legacy, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("Failed to open legacy database: %v", err)
	}
	_, err = legacy.Exec(`
		CREATE TABLE products (
			id TEXT PRIMARY KEY,
			group_id TEXT NOT NULL,
			name TEXT NOT NULL,
			type TEXT NOT NULL,
			brand TEXT NOT NULL DEFAULT '',
			unit TEXT NOT NULL,
			price TEXT NOT NULL,
			notes TEXT NOT NULL DEFAULT '',
			unit_price TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);
		INSERT INTO products VALUES ('p1', 'g1', 'Água Mineral', 'Sem Gás', '', '1.5 l', '2.99', '', '$0.20/100ml', 1, 1);
	`)
	legacy.Close()
	if err != nil {
		t.Fatalf("Failed to seed legacy database: %v", err)
	}

	store, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to migrate legacy database: %v", err)
	}
	defer store.Close()

	got, err := store.ListProducts(context.Background(), storage.ProductQuery{GroupID: "g1", NameContains: "água"})
	if err != nil {
		t.Fatalf("ListProducts failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != "p1" {
		t.Errorf("Expected backfilled record p1, got %v", got)
	}
}
