package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyValuePattern(t *testing.T) {
	valid := KeyValuePrefix + "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"
	assert.True(t, KeyValuePattern.MatchString(valid))

	invalid := []string{
		"",
		"whk_",
		"whk_short",
		"wh_0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef",
		KeyValuePrefix + "0123456789ABCDEF0123456789abcdef0123456789abcdef0123456789abcdef",
		valid + "0",
	}
	for _, v := range invalid {
		assert.False(t, KeyValuePattern.MatchString(v), "expected %q to be rejected", v)
	}
}

func TestAPIKeyCanUse(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name      string
		isActive  bool
		expiresAt *time.Time
		canUse    bool
	}{
		{"active without expiry", true, nil, true},
		{"active before expiry", true, &future, true},
		{"active past expiry", true, &past, false},
		{"inactive without expiry", false, nil, false},
		{"inactive past expiry", false, &past, false},
		{"expiry exactly now", true, &now, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := &APIKey{IsActive: tt.isActive, ExpiresAt: tt.expiresAt}
			assert.Equal(t, tt.canUse, key.CanUse(now))
		})
	}
}

func TestAPIKeyInfoStripsSecret(t *testing.T) {
	key := &APIKey{
		ID:       uuid.New(),
		KeyValue: KeyValuePrefix + "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef",
		OwnerID:  uuid.New(),
		IsActive: true,
	}

	info := key.Info(time.Now())

	data, err := json.Marshal(info)
	require.NoError(t, err)
	assert.NotContains(t, string(data), key.KeyValue)
	assert.NotContains(t, string(data), "whk_")
}

func TestAPIKeyInfoDerivedExpired(t *testing.T) {
	past := time.Now().Add(-time.Minute)
	key := &APIKey{ID: uuid.New(), IsActive: true, ExpiresAt: &past}

	info := key.Info(time.Now())
	assert.True(t, info.IsActive, "is_active is stored state, not usability")
	assert.True(t, info.IsExpired)
}

func TestAPIKeyInfoNilPermissions(t *testing.T) {
	key := &APIKey{ID: uuid.New()}
	info := key.Info(time.Now())

	require.NotNil(t, info.Permissions)
	assert.Empty(t, info.Permissions)

	data, err := json.Marshal(info)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"permissions":[]`)
}

func TestAPIKeyJSONNeverIncludesKeyValue(t *testing.T) {
	key := &APIKey{
		ID:       uuid.New(),
		KeyValue: "whk_secret",
	}
	data, err := json.Marshal(key)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "whk_secret")
}
