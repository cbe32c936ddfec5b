package retriever

import (
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/hyperjump/kotae/internal/vector"
)

func TestNew_Local(t *testing.T) {
	r, err := New(Options{Mode: ModeLocal, Dimensions: 4}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if r.Mode() != ModeLocal {
		t.Errorf("Mode=%q, want local", r.Mode())
	}
	if _, ok := r.(*LocalRetriever); !ok {
		t.Errorf("expected *LocalRetriever, got %T", r)
	}
}

func TestNew_EmptyModeDefaultsToLocal(t *testing.T) {
	r, err := New(Options{Dimensions: 4}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if r.Mode() != ModeLocal {
		t.Errorf("Mode=%q, want local", r.Mode())
	}
}

func TestNew_Postgres(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	r, err := New(Options{Mode: ModePostgres, Dimensions: 4, Threshold: 0.5, QueryTimeout: time.Second}, db, nil)
	if err != nil {
		t.Fatal(err)
	}
	if r.Mode() != ModePostgres {
		t.Errorf("Mode=%q, want postgres", r.Mode())
	}
}

func TestNew_PostgresWithoutDB(t *testing.T) {
	_, err := New(Options{Mode: ModePostgres, Dimensions: 4}, nil, nil)
	if !errors.Is(err, vector.ErrInvalidConfiguration) {
		t.Errorf("expected invalid_configuration, got %v", err)
	}
}

func TestNew_UnknownMode(t *testing.T) {
	_, err := New(Options{Mode: "supabase", Dimensions: 4}, nil, nil)
	if !errors.Is(err, vector.ErrInvalidConfiguration) {
		t.Errorf("expected invalid_configuration, got %v", err)
	}
}
