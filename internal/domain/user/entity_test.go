package user

import (
	"strings"
	"testing"

	"github.com/foodtrack/api/internal/domain/recipe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// UserTestSuite provides a test suite for the User entity
type UserTestSuite struct {
	suite.Suite
}

func (suite *UserTestSuite) TestNewUser() {
	suite.Run("ValidInput_ShouldNormalizeAndHash", func() {
		// Act
		u, err := NewUser("  Marie@Example.COM ", "s3cret-pass", "Marie", "Curie")

		// Assert
		require.NoError(suite.T(), err)
		assert.Equal(suite.T(), "marie@example.com", u.Email())
		assert.Equal(suite.T(), RoleUser, u.Role())
		assert.False(suite.T(), u.HasSeenTutorial())
		assert.Equal(suite.T(), DefaultHouseholdSize, u.Settings().HouseholdSize)
		assert.NoError(suite.T(), u.CheckPassword("s3cret-pass"))
		assert.Error(suite.T(), u.CheckPassword("wrong"))
		assert.NotContains(suite.T(), u.Snapshot().PasswordHash, "s3cret-pass")
	})

	suite.Run("InvalidInput_ShouldFail", func() {
		tests := []struct {
			name, email, password string
			want                  error
		}{
			{"missing email", "", "password1", ErrEmailRequired},
			{"no at sign", "marie.example.com", "password1", ErrInvalidEmail},
			{"no domain dot", "marie@example", "password1", ErrInvalidEmail},
			{"short password", "marie@example.com", "short", ErrPasswordTooShort},
			{"long password", "marie@example.com", strings.Repeat("p", 73), ErrPasswordTooLong},
		}
		for _, tt := range tests {
			suite.Run(tt.name, func() {
				_, err := NewUser(tt.email, tt.password, "", "")
				assert.ErrorIs(suite.T(), err, tt.want)
			})
		}
	})
}

func (suite *UserTestSuite) TestUpdateSettings() {
	u, err := NewUser("paul@example.com", "password1", "Paul", "")
	require.NoError(suite.T(), err)

	suite.Run("PartialPatch_ShouldKeepOtherFields", func() {
		// Arrange
		size := 6
		medium := recipe.DifficultyMedium

		// Act
		err := u.UpdateSettings(SettingsPatch{HouseholdSize: &size, DifficultyPreference: &medium})

		// Assert
		require.NoError(suite.T(), err)
		s := u.Settings()
		assert.Equal(suite.T(), 6, s.HouseholdSize)
		require.NotNil(suite.T(), s.DifficultyPreference)
		assert.Equal(suite.T(), recipe.DifficultyMedium, *s.DifficultyPreference)
		assert.Empty(suite.T(), s.DietPreferences)
		assert.Nil(suite.T(), s.MaxPrepTime)
	})

	suite.Run("OutOfRange_ShouldLeaveSettingsUnchanged", func() {
		tooMany := 21
		tooQuick := 4

		assert.ErrorIs(suite.T(), u.UpdateSettings(SettingsPatch{HouseholdSize: &tooMany}), ErrInvalidHouseholdSize)
		assert.ErrorIs(suite.T(), u.UpdateSettings(SettingsPatch{MaxPrepTime: &tooQuick}), ErrInvalidMaxPrepTime)
		assert.ErrorIs(suite.T(), u.UpdateSettings(SettingsPatch{DietPreferences: []recipe.DietType{"KETO"}}), recipe.ErrInvalidDietType)
		assert.Equal(suite.T(), 6, u.Settings().HouseholdSize)
	})
}

func (suite *UserTestSuite) TestProfile() {
	u, err := NewUser("lea@example.com", "password1", "Léa", "Martin")
	require.NoError(suite.T(), err)
	first := " Léna "

	require.NoError(suite.T(), u.UpdateName(&first, nil))
	u.MarkTutorialSeen()

	assert.Equal(suite.T(), "Léna", u.FirstName())
	assert.Equal(suite.T(), "Martin", u.LastName())
	assert.True(suite.T(), u.HasSeenTutorial())

	restored := Rehydrate(u.Snapshot())
	assert.Equal(suite.T(), u.ID(), restored.ID())
	assert.True(suite.T(), restored.HasSeenTutorial())
	assert.NoError(suite.T(), restored.CheckPassword("password1"))
}

func TestUserTestSuite(t *testing.T) {
	suite.Run(t, new(UserTestSuite))
}
