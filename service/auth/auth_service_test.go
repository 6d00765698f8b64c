package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"watchtower-service/testutil"
)

func newTestService(t *testing.T) *Service {
	tdb := testutil.NewTestDB(t)
	return NewService(tdb.DB, "test-secret", time.Hour)
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	resp, err := svc.Register(ctx, RegisterInput{Email: "Ann@Example.com", Password: "pw123456", Name: "Ann"})
	require.NoError(t, err)
	assert.Equal(t, "bearer", resp.TokenType)
	assert.Equal(t, "ann@example.com", resp.User.Email)
	assert.NotEqual(t, "pw123456", resp.User.PasswordHash)

	claims, err := svc.ParseToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)
	assert.Equal(t, "ann@example.com", claims.Email)

	_, err = svc.Register(ctx, RegisterInput{Email: "ann@example.com", Password: "x", Name: "Dup"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	login, err := svc.Login(ctx, LoginInput{Email: "ann@example.com", Password: "pw123456"})
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, login.User.ID)

	_, err = svc.Login(ctx, LoginInput{Email: "ann@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "pw123456"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	me, err := svc.Me(ctx, claims.UserID)
	require.NoError(t, err)
	assert.Equal(t, "Ann", me.Name)

	_, err = svc.Me(ctx, "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Register(context.Background(), RegisterInput{Email: "a@b.c"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestParseToken(t *testing.T) {
	svc := newTestService(t)
	user := testutil.NewTestDataFactory(svc.db).CreateUser()

	t.Run("过期令牌", func(t *testing.T) {
		resp, err := svc.issue(user)
		require.NoError(t, err)
		svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		defer func() { svc.now = time.Now }()

		_, err = svc.ParseToken(resp.AccessToken)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("签名密钥不一致", func(t *testing.T) {
		other := NewService(svc.db, "other-secret", time.Hour)
		resp, err := other.issue(user)
		require.NoError(t, err)
		_, err = svc.ParseToken(resp.AccessToken)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("非 HS256 算法", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
			UserID:           user.ID,
			RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
		})
		signed, err := token.SignedString([]byte("test-secret"))
		require.NoError(t, err)
		_, err = svc.ParseToken(signed)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("无效格式", func(t *testing.T) {
		_, err := svc.ParseToken("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
