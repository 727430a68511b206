package utils

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() { bcryptCost = bcrypt.MinCost }

// bcrypt: the right password matches, a wrong one does not.
func TestHashAndCheckPassword(t *testing.T) {
	hashed, err := HashPassword("p@ss")
	if err != nil {
		t.Fatalf("hash err: %v", err)
	}
	if !CheckPasswordHash("p@ss", hashed) {
		t.Fatalf("should match")
	}
	if CheckPasswordHash("hahaha", hashed) {
		t.Fatalf("should not match")
	}
}

func TestStrongPassword(t *testing.T) {
	assert.Empty(t, StrongPassword("Str0ng!pass"))
	assert.Equal(t, []string{"at least 8 characters"}, StrongPassword("Aa1!"))
	assert.ElementsMatch(t,
		[]string{"an uppercase letter", "a number", "a special character"},
		StrongPassword("lowercaseonly"))
}

func TestJWTGenerateAndVerify(t *testing.T) {
	tokens := NewTokens("test-secret", time.Hour)
	token, err := tokens.GenerateToken("a@b.com", "64b7f0c2a1b2c3d4e5f60718", RoleUser)
	require.NoError(t, err)

	claims, err := tokens.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "64b7f0c2a1b2c3d4e5f60718", claims.UserID)
	assert.Equal(t, "a@b.com", claims.Email)
	assert.Equal(t, RoleUser, claims.Role)
}

// a tampered token, a token from another secret and an expired token all fail
func TestVerifyToken_Negative(t *testing.T) {
	tokens := NewTokens("test-secret", time.Hour)
	tok, err := tokens.GenerateToken("x@x.com", "u1", RoleUser)
	require.NoError(t, err)

	_, err = tokens.VerifyToken(tok + "x")
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := NewTokens("other-secret", time.Hour)
	_, err = other.VerifyToken(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	past := NewTokens("test-secret", time.Minute)
	past.now = func() time.Time { return time.Now().Add(-time.Hour) }
	old, err := past.GenerateToken("x@x.com", "u1", RoleUser)
	require.NoError(t, err)
	_, err = tokens.VerifyToken(old)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = tokens.VerifyToken(strings.Repeat("a", 20))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

// Seed list and item keys, purge, and only the targeted keys disappear.
func TestCacheInvalidator_Purge(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	inv := NewCacheInvalidator(rdb)

	ctx := context.Background()
	require.NoError(t, rdb.Set(ctx, CacheEventsList+"abc", "x", 0).Err())
	require.NoError(t, rdb.Set(ctx, CacheEventItem+"e1:u1", "x", 0).Err())
	require.NoError(t, rdb.Set(ctx, CacheEventItem+"e1:anon", "x", 0).Err())
	require.NoError(t, rdb.Set(ctx, CacheEventItem+"e2:u1", "x", 0).Err())
	require.NoError(t, rdb.Set(ctx, CacheBlogs+"list", "x", 0).Err())

	inv.PurgeEvent(ctx, "e1")
	assert.ElementsMatch(t, []string{CacheEventItem + "e2:u1", CacheBlogs + "list"}, mr.Keys())

	inv.PurgeBlogs(ctx)
	assert.Equal(t, []string{CacheEventItem + "e2:u1"}, mr.Keys())

	require.NoError(t, rdb.Set(ctx, CacheEventsList+"def", "x", 0).Err())
	inv.PurgeAllEvents(ctx)
	assert.Empty(t, mr.Keys())

	var nilInv *CacheInvalidator
	nilInv.PurgeEventsList(ctx)
}
