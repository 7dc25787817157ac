package auth

import (
	"regexp"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/lepens-foundation/lepens/config"
	"github.com/lepens-foundation/lepens/testutils"
)

type mockNotifier struct {
	calls []notifyCall
	err   error
}

type notifyCall struct {
	recipient string
	subject   string
	template  string
	data      map[string]any
}

func (m *mockNotifier) Enqueue(recipient, subject, template string, data map[string]any) error {
	m.calls = append(m.calls, notifyCall{recipient: recipient, subject: subject, template: template, data: data})
	return m.err
}

func testAuthConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Name: "LEPENS Foundation"},
		Auth: config.AuthConfig{
			MinPasswordLength:      6,
			BcryptCost:             bcrypt.MinCost,
			VerificationCodeExpiry: 10 * time.Minute,
		},
	}
}

func setupService(t *testing.T) (*Service, *gorm.DB, *mockNotifier) {
	t.Helper()
	db := testutils.SetupTestDB(t, &Account{})
	notifier := &mockNotifier{}
	return NewService(testAuthConfig(), db, notifier, nil), db, notifier
}

func TestSignup(t *testing.T) {
	t.Run("creates unverified account with pending code", func(t *testing.T) {
		service, db, notifier := setupService(t)

		account, err := service.Signup("A", "a@x.com", "secret1")
		require.NoError(t, err)
		require.NotNil(t, account)

		var stored Account
		require.NoError(t, db.First(&stored, account.ID).Error)
		assert.Equal(t, "A", stored.Name)
		assert.Equal(t, "a@x.com", stored.Email)
		assert.False(t, stored.Verified)
		require.NotNil(t, stored.VerificationCode)
		assert.Regexp(t, regexp.MustCompile(`^\d{6}$`), *stored.VerificationCode)
		require.NotNil(t, stored.VerificationCodeExpiresAt)
		assert.WithinDuration(t, time.Now().Add(10*time.Minute), *stored.VerificationCodeExpiresAt, time.Minute)

		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("secret1")))

		require.Len(t, notifier.calls, 1)
		assert.Equal(t, "a@x.com", notifier.calls[0].recipient)
		assert.Equal(t, "verification_code", notifier.calls[0].template)
		assert.Equal(t, *stored.VerificationCode, notifier.calls[0].data["Code"])
	})

	t.Run("normalizes email case", func(t *testing.T) {
		service, _, _ := setupService(t)

		account, err := service.Signup("A", "  Admin@LEPENS.org ", "secret1")
		require.NoError(t, err)
		assert.Equal(t, "admin@lepens.org", account.Email)
	})

	t.Run("missing fields", func(t *testing.T) {
		service, db, _ := setupService(t)

		for _, args := range [][3]string{
			{"", "a@x.com", "secret1"},
			{"A", "", "secret1"},
			{"A", "a@x.com", ""},
		} {
			_, err := service.Signup(args[0], args[1], args[2])
			assert.ErrorIs(t, err, ErrMissingFields)
		}

		var count int64
		require.NoError(t, db.Model(&Account{}).Count(&count).Error)
		assert.Zero(t, count)
	})

	t.Run("password shorter than minimum", func(t *testing.T) {
		service, db, _ := setupService(t)

		_, err := service.Signup("A", "a@x.com", "five5")
		require.ErrorIs(t, err, ErrPasswordTooShort)
		assert.Contains(t, err.Error(), "at least 6 characters")

		var count int64
		require.NoError(t, db.Model(&Account{}).Count(&count).Error)
		assert.Zero(t, count)
	})

	t.Run("duplicate email", func(t *testing.T) {
		service, _, _ := setupService(t)

		_, err := service.Signup("A", "a@x.com", "secret1")
		require.NoError(t, err)

		_, err = service.Signup("B", "a@x.com", "secret2")
		assert.ErrorIs(t, err, ErrEmailAlreadyRegistered)
	})

	t.Run("enqueue failure does not fail signup", func(t *testing.T) {
		service, db, notifier := setupService(t)
		notifier.err = assert.AnError

		account, err := service.Signup("A", "a@x.com", "secret1")
		require.NoError(t, err)

		var stored Account
		assert.NoError(t, db.First(&stored, account.ID).Error)
	})
}

func TestVerifyCode(t *testing.T) {
	signup := func(t *testing.T) (*Service, *gorm.DB, *Account, string) {
		t.Helper()
		service, db, notifier := setupService(t)
		account, err := service.Signup("A", "a@x.com", "secret1")
		require.NoError(t, err)
		code := notifier.calls[0].data["Code"].(string)
		return service, db, account, code
	}

	t.Run("correct code within expiry", func(t *testing.T) {
		service, db, account, code := signup(t)

		verified, err := service.VerifyCode(account.ID, code)
		require.NoError(t, err)
		assert.True(t, verified.Verified)
		assert.Nil(t, verified.VerificationCode)
		assert.Nil(t, verified.VerificationCodeExpiresAt)

		var stored Account
		require.NoError(t, db.First(&stored, account.ID).Error)
		assert.True(t, stored.Verified)
		assert.Nil(t, stored.VerificationCode)
		assert.Nil(t, stored.VerificationCodeExpiresAt)
	})

	t.Run("unknown account", func(t *testing.T) {
		service, _, _, code := signup(t)

		_, err := service.VerifyCode(9999, code)
		assert.ErrorIs(t, err, ErrAccountNotFound)
	})

	t.Run("wrong code", func(t *testing.T) {
		service, db, account, code := signup(t)

		wrong := "000000"
		if wrong == code {
			wrong = "000001"
		}

		_, err := service.VerifyCode(account.ID, wrong)
		assert.ErrorIs(t, err, ErrCodeInvalidOrExpired)

		var stored Account
		require.NoError(t, db.First(&stored, account.ID).Error)
		assert.False(t, stored.Verified)
	})

	t.Run("expired code", func(t *testing.T) {
		service, db, account, code := signup(t)

		expired := time.Now().Add(-time.Minute)
		require.NoError(t, db.Model(&Account{}).Where("id = ?", account.ID).
			Update("verification_code_expires_at", expired).Error)

		_, err := service.VerifyCode(account.ID, code)
		assert.ErrorIs(t, err, ErrCodeInvalidOrExpired)

		var stored Account
		require.NoError(t, db.First(&stored, account.ID).Error)
		assert.False(t, stored.Verified)
	})

	t.Run("verification is one-way and one-time", func(t *testing.T) {
		service, _, account, code := signup(t)

		_, err := service.VerifyCode(account.ID, code)
		require.NoError(t, err)

		_, err = service.VerifyCode(account.ID, code)
		assert.ErrorIs(t, err, ErrAlreadyVerified)
	})
}

func TestLogin(t *testing.T) {
	setupVerified := func(t *testing.T) (*Service, *Account) {
		t.Helper()
		service, _, notifier := setupService(t)
		account, err := service.Signup("A", "a@x.com", "secret1")
		require.NoError(t, err)
		code := notifier.calls[0].data["Code"].(string)
		_, err = service.VerifyCode(account.ID, code)
		require.NoError(t, err)
		return service, account
	}

	t.Run("verified account with correct password", func(t *testing.T) {
		service, account := setupVerified(t)

		loggedIn, err := service.Login("a@x.com", "secret1")
		require.NoError(t, err)
		assert.Equal(t, account.ID, loggedIn.ID)
		assert.True(t, loggedIn.Verified)
	})

	t.Run("unknown email and wrong password are indistinguishable", func(t *testing.T) {
		service, _ := setupVerified(t)

		_, errUnknown := service.Login("nobody@x.com", "secret1")
		_, errWrongPw := service.Login("a@x.com", "wrongpw")

		require.ErrorIs(t, errUnknown, ErrInvalidCredentials)
		require.ErrorIs(t, errWrongPw, ErrInvalidCredentials)
		assert.Equal(t, errUnknown.Error(), errWrongPw.Error())
	})

	t.Run("unverified account is rejected even with correct password", func(t *testing.T) {
		service, _, _ := setupService(t)
		_, err := service.Signup("A", "a@x.com", "secret1")
		require.NoError(t, err)

		_, err = service.Login("a@x.com", "secret1")
		assert.ErrorIs(t, err, ErrNotVerified)
	})

	t.Run("missing fields", func(t *testing.T) {
		service, _, _ := setupService(t)

		_, err := service.Login("", "secret1")
		assert.ErrorIs(t, err, ErrMissingFields)

		_, err = service.Login("a@x.com", "")
		assert.ErrorIs(t, err, ErrMissingFields)
	})
}

func TestByID(t *testing.T) {
	service, _, _ := setupService(t)
	account, err := service.Signup("A", "a@x.com", "secret1")
	require.NoError(t, err)

	loaded, err := service.ByID(account.ID)
	require.NoError(t, err)
	assert.Equal(t, account.ID, loaded.ID)
	assert.Empty(t, loaded.Password)

	_, err = service.ByID(9999)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestProjection(t *testing.T) {
	service, _, _ := setupService(t)
	account := &Account{Name: "A", Email: "a@x.com", Password: "hash", Verified: true}
	account.ID = 7

	p := service.Projection(account)
	assert.Equal(t, Projection{ID: 7, Name: "A", Email: "a@x.com"}, p)
}

func TestGenerateVerificationCode(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		code, err := generateVerificationCode()
		require.NoError(t, err)
		require.Len(t, code, 6)

		n, err := strconv.Atoi(code)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 100000)
		assert.LessOrEqual(t, n, 999999)
		seen[code] = true
	}
	// 200 uniform draws from 900k values should essentially never all collide.
	assert.Greater(t, len(seen), 150)
}
