package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chioma-app/api/internal/models"
)

func newUserServiceFixture() (*UserService, *MockUserRepository) {
	users := &MockUserRepository{}
	svc := NewUserService(users, testLogger(), testAuditLogger())
	return svc, users
}

func TestUserService_GetProfile(t *testing.T) {
	svc, users := newUserServiceFixture()

	first := "Ada"
	users.GetByIDFunc = func(ctx context.Context, id string) (*models.User, error) {
		return &models.User{
			ID:           id,
			Email:        "ada@example.com",
			PasswordHash: "$2a$12$secret",
			FirstName:    &first,
			Role:         models.RoleTenant,
		}, nil
	}

	profile, err := svc.GetProfile(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", profile.ID)
	assert.Equal(t, "ada@example.com", profile.Email)
	assert.Equal(t, "Ada", *profile.FirstName)
}

func TestUserService_GetProfileNotFound(t *testing.T) {
	svc, users := newUserServiceFixture()
	users.GetByIDFunc = func(ctx context.Context, id string) (*models.User, error) {
		return nil, models.ErrNotFound
	}

	_, err := svc.GetProfile(context.Background(), "nope")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestUserService_UpdateProfileOnlyTouchesProvidedFields(t *testing.T) {
	svc, users := newUserServiceFixture()

	existingFirst := "Ada"
	existingLast := "Lovelace"
	users.GetByIDFunc = func(ctx context.Context, id string) (*models.User, error) {
		return &models.User{
			ID:        id,
			FirstName: &existingFirst,
			LastName:  &existingLast,
		}, nil
	}

	var saved *models.User
	users.UpdateFunc = func(ctx context.Context, id string, u *models.User) (*models.User, error) {
		saved = u
		return u, nil
	}

	newFirst := "  Grace  "
	_, err := svc.UpdateProfile(context.Background(), "user-1", &newFirst, nil)
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, "Grace", *saved.FirstName)
	assert.Equal(t, "Lovelace", *saved.LastName)
}

func TestUserService_ListUsersClampsLimit(t *testing.T) {
	svc, users := newUserServiceFixture()

	var gotLimit, gotOffset int
	users.ListFunc = func(ctx context.Context, limit, offset int) ([]*models.User, error) {
		gotLimit, gotOffset = limit, offset
		return []*models.User{{ID: "u1"}, {ID: "u2"}}, nil
	}

	profiles, err := svc.ListUsers(context.Background(), 500, -3)
	require.NoError(t, err)
	assert.Equal(t, 100, gotLimit)
	assert.Equal(t, 0, gotOffset)
	assert.Len(t, profiles, 2)
}

func TestUserService_SetStatusRejectsSelf(t *testing.T) {
	svc, _ := newUserServiceFixture()

	err := svc.SetStatus(context.Background(), "admin-1", "admin-1", models.StatusDisabled)
	assert.ErrorIs(t, err, models.ErrForbidden)
}

func TestUserService_SetStatusRejectsUnknownStatus(t *testing.T) {
	svc, _ := newUserServiceFixture()

	err := svc.SetStatus(context.Background(), "admin-1", "user-1", "banned")
	assert.ErrorIs(t, err, models.ErrBadRequest)
}

func TestUserService_SetStatusSuspensionStampsCredentialEpoch(t *testing.T) {
	svc, users := newUserServiceFixture()

	users.GetByIDFunc = func(ctx context.Context, id string) (*models.User, error) {
		return &models.User{ID: id, Status: models.StatusActive}, nil
	}

	var saved *models.User
	users.UpdateFunc = func(ctx context.Context, id string, u *models.User) (*models.User, error) {
		saved = u
		return u, nil
	}

	require.NoError(t, svc.SetStatus(context.Background(), "admin-1", "user-1", models.StatusSuspended))
	require.NotNil(t, saved)
	assert.Equal(t, models.StatusSuspended, saved.Status)
	// Outstanding refresh tokens must die with the suspension
	assert.NotNil(t, saved.PasswordChangedAt)
}

func TestUserService_SetStatusReactivationKeepsEpoch(t *testing.T) {
	svc, users := newUserServiceFixture()

	users.GetByIDFunc = func(ctx context.Context, id string) (*models.User, error) {
		return &models.User{ID: id, Status: models.StatusSuspended}, nil
	}

	var saved *models.User
	users.UpdateFunc = func(ctx context.Context, id string, u *models.User) (*models.User, error) {
		saved = u
		return u, nil
	}

	require.NoError(t, svc.SetStatus(context.Background(), "admin-1", "user-1", models.StatusActive))
	require.NotNil(t, saved)
	assert.Equal(t, models.StatusActive, saved.Status)
	assert.Nil(t, saved.PasswordChangedAt)
}

func TestUserService_SetStatusNoopWhenUnchanged(t *testing.T) {
	svc, users := newUserServiceFixture()

	users.GetByIDFunc = func(ctx context.Context, id string) (*models.User, error) {
		return &models.User{ID: id, Status: models.StatusActive}, nil
	}

	updateCalled := false
	users.UpdateFunc = func(ctx context.Context, id string, u *models.User) (*models.User, error) {
		updateCalled = true
		return u, nil
	}

	require.NoError(t, svc.SetStatus(context.Background(), "admin-1", "user-1", models.StatusActive))
	assert.False(t, updateCalled)
}

func TestUserService_DeleteUserRejectsSelf(t *testing.T) {
	svc, _ := newUserServiceFixture()

	err := svc.DeleteUser(context.Background(), "admin-1", "admin-1")
	assert.ErrorIs(t, err, models.ErrForbidden)
}

func TestUserService_DeleteUser(t *testing.T) {
	svc, users := newUserServiceFixture()

	var deletedID string
	users.DeleteFunc = func(ctx context.Context, id string) error {
		deletedID = id
		return nil
	}

	require.NoError(t, svc.DeleteUser(context.Background(), "admin-1", "user-1"))
	assert.Equal(t, "user-1", deletedID)
}
