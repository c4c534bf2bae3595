package services

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/petalertfrance/petalert-be/internal/database"
	"github.com/petalertfrance/petalert-be/internal/models"
	"github.com/petalertfrance/petalert-be/internal/uploads"
	"github.com/stretchr/testify/require"
)

// newTestDB opens a throwaway SQLite database with the full schema applied.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))
	return db
}

func newTestPhotoStore(t *testing.T) *uploads.Store {
	t.Helper()
	store, err := uploads.NewStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func registerTestUser(t *testing.T, svc *UserService, email string) models.User {
	t.Helper()
	user, err := svc.Register("Test User", email, "secret123", "0601020304")
	require.NoError(t, err)
	return user
}

func createTestPet(t *testing.T, svc *PetService, userID, name string) models.Pet {
	t.Helper()
	pet, err := svc.Create(userID, models.PetFields{Name: name, Type: "dog", Breed: "Beagle"}, nil)
	require.NoError(t, err)
	return pet
}
