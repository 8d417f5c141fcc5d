//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v4"

	"lingotube-backend/internal/domain"
	"lingotube-backend/internal/domain/model"
	"lingotube-backend/internal/domain/ports/repository"
)

func TestActivationCodeRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}

	ctx := context.Background()
	repo := NewActivationCodeRepo(testPool)
	userRepo := NewPostgresUserRepo(testPool)

	t.Run("should create, find, and consume an activation code", func(t *testing.T) {
		cleanup(t)

		user, err := model.NewUser("consumer@example.com", "hash")
		if err != nil {
			t.Fatalf("new user: %v", err)
		}
		if err := userRepo.Save(ctx, nil, user); err != nil {
			t.Fatalf("save user: %v", err)
		}

		code, err := model.NewActivationCode("TEST-CODE-1234", nil)
		if err != nil {
			t.Fatalf("new code: %v", err)
		}
		if err := repo.Save(ctx, nil, code); err != nil {
			t.Fatalf("save code: %v", err)
		}

		found, err := repo.FindByCode(ctx, nil, "TEST-CODE-1234")
		if err != nil {
			t.Fatalf("FindByCode failed: %v", err)
		}
		if found.IsUsed {
			t.Error("expected a fresh code to be unused")
		}

		if err := found.Consume(user.ID, time.Now()); err != nil {
			t.Fatalf("consume: %v", err)
		}
		if err := repo.Save(ctx, nil, found); err != nil {
			t.Fatalf("save consumed code: %v", err)
		}

		again, err := repo.FindByCode(ctx, nil, "TEST-CODE-1234")
		if err != nil {
			t.Fatalf("re-find failed: %v", err)
		}
		if !again.IsUsed || again.UsedByUserID == nil || *again.UsedByUserID != user.ID {
			t.Errorf("consumed state not persisted: %+v", again)
		}
	})

	t.Run("should report existence without exposing state", func(t *testing.T) {
		cleanup(t)

		code, _ := model.NewActivationCode("EXST-EXST-EXST", nil)
		if err := repo.Save(ctx, nil, code); err != nil {
			t.Fatalf("save code: %v", err)
		}

		ok, err := repo.ExistsByCode(ctx, nil, "EXST-EXST-EXST")
		if err != nil || !ok {
			t.Errorf("ExistsByCode = %v, %v; want true, nil", ok, err)
		}
		ok, err = repo.ExistsByCode(ctx, nil, "GONE-GONE-GONE")
		if err != nil || ok {
			t.Errorf("ExistsByCode for absent code = %v, %v; want false, nil", ok, err)
		}
	})

	t.Run("should return ErrNotFound for an unknown code", func(t *testing.T) {
		cleanup(t)
		if _, err := repo.FindByCode(ctx, nil, "NOPE-NOPE-NOPE"); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("got %v, want ErrNotFound", err)
		}
	})

	t.Run("should lock the row inside a transaction", func(t *testing.T) {
		cleanup(t)

		code, _ := model.NewActivationCode("LOCK-LOCK-LOCK", nil)
		if err := repo.Save(ctx, nil, code); err != nil {
			t.Fatalf("save code: %v", err)
		}

		tm := NewTxManager(testPool)
		err := tm.WithTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(ctx context.Context, tx repository.Tx) error {
			if _, err := repo.FindByCode(ctx, tx, "LOCK-LOCK-LOCK"); err != nil {
				return err
			}
			// While the row is locked, a second locked read must block.
			done := make(chan error, 1)
			go func() {
				done <- tm.WithTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(ctx context.Context, tx2 repository.Tx) error {
					_, err := repo.FindByCode(ctx, tx2, "LOCK-LOCK-LOCK")
					return err
				})
			}()
			select {
			case <-done:
				t.Error("second locked read completed while the lock was held")
			case <-time.After(300 * time.Millisecond):
				// Expected: still blocked. It resolves once we commit.
			}
			go func() { <-done }()
			return nil
		})
		if err != nil {
			t.Fatalf("WithTx failed: %v", err)
		}
	})
}
