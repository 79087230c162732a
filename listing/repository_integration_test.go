package listing

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TestPGRepository_Integration connects to a real PostgreSQL via DATABASE_URL
// and verifies the create/list/delete round-trip.
func TestPGRepository_Integration(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL is empty; set it to a live PostgreSQL to run integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect pool: %v", err)
	}
	defer pool.Close()

	var exists bool
	if err := pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_schema = 'public' AND table_name = 'waste_listings')`).Scan(&exists); err != nil {
		t.Fatalf("check table: %v", err)
	}
	if !exists {
		t.Skip("database schema missing; run the embedded migrations first")
	}

	repo := NewRepository(pool)
	title := fmt.Sprintf("Rice Husk %d", time.Now().UnixNano())

	created, err := repo.Create(ctx, CreateParams{
		Title:       title,
		WasteType:   "Rice Waste",
		Quantity:    "500kg",
		Price:       "₹4/kg",
		Location:    "Punjab",
		Farmer:      "Integration Farmer",
		Image:       "http://example.com/husk.jpg",
		Description: "dry",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	t.Cleanup(func() {
		ctx2, cancel2 := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel2()
		pool.Exec(ctx2, `DELETE FROM waste_listings WHERE id = $1`, created.ID)
	})

	if created.ID == "" || created.CreatedAt.IsZero() {
		t.Fatalf("expected store-assigned id and timestamp, got %+v", created)
	}
	if created.Verified {
		t.Fatal("expected verified=false on create")
	}

	listings, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var found *Listing
	for i := range listings {
		if listings[i].ID == created.ID {
			found = &listings[i]
			break
		}
	}
	if found == nil {
		t.Fatalf("created listing %s missing from list", created.ID)
	}
	if found.Title != title || found.Quantity != "500kg" || found.Price != "₹4/kg" {
		t.Fatalf("round-trip mismatch: %+v", found)
	}

	if err := repo.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Delete(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}
