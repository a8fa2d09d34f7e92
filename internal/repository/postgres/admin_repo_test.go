package postgres

import (
	"context"
	"testing"
	"time"

	"agentlist-service/internal/domain/admin"
	xerrors "agentlist-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"
)

func TestAdminRepository(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	t.Run("find by email", func(t *testing.T) {
		mock := newMockPool(t)
		repo := NewAdminRepository(mock)

		mock.ExpectQuery(`FROM admins WHERE LOWER\(email\) = LOWER\(\$1\)`).
			WithArgs("Root@X.io").
			WillReturnRows(mock.NewRows([]string{
				"id", "full_name", "email", "password_hash", "roles", "is_active", "last_login", "created_at", "updated_at",
			}).AddRow(int64(1), "Root", "root@x.io", "hash", pq.StringArray{"admin"}, true, nil, now, now))

		a, err := repo.FindByEmail(ctx, "Root@X.io")

		require.NoError(t, err)
		require.Equal(t, "root@x.io", a.Email)
		require.Equal(t, pq.StringArray{"admin"}, a.Roles)
		require.Nil(t, a.LastLogin)
	})

	t.Run("unknown email", func(t *testing.T) {
		mock := newMockPool(t)
		repo := NewAdminRepository(mock)

		mock.ExpectQuery(`FROM admins`).
			WithArgs("nobody@x.io").
			WillReturnError(pgx.ErrNoRows)

		_, err := repo.FindByEmail(ctx, "nobody@x.io")
		require.ErrorIs(t, err, xerrors.ErrNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("create", func(t *testing.T) {
		mock := newMockPool(t)
		repo := NewAdminRepository(mock)

		a := &admin.Admin{FullName: "Root", Email: "root@x.io", PasswordHash: "hash", Roles: pq.StringArray{"admin"}, IsActive: true}
		mock.ExpectQuery(`INSERT INTO admins`).
			WithArgs("Root", "root@x.io", "hash", pgxmock.AnyArg(), true).
			WillReturnRows(mock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(1), now, now))

		require.NoError(t, repo.Create(ctx, a))
		require.Equal(t, int64(1), a.ID)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("update last login", func(t *testing.T) {
		mock := newMockPool(t)
		repo := NewAdminRepository(mock)

		mock.ExpectExec(`UPDATE admins SET last_login = NOW\(\)`).
			WithArgs(int64(1)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		require.NoError(t, repo.UpdateLastLogin(ctx, 1))
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
