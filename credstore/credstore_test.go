package credstore

import (
	"encoding/json"
	"testing"

	"github.com/input-output-hk/catalyst-forge-libs/fs/billy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kambire/Geeks-S3-Api-upload/errors"
	"github.com/kambire/Geeks-S3-Api-upload/uploadtypes"
)

func testCreds() uploadtypes.Credentials {
	return uploadtypes.Credentials{
		AccessKeyID:     "AKIA123",
		SecretAccessKey: "shh-secret",
		Endpoint:        "https://account.r2.cloudflarestorage.com",
		Bucket:          "media",
	}
}

// TestStore_SaveLoad tests the write-then-read round trip.
func TestStore_SaveLoad(t *testing.T) {
	store := New(billy.NewInMemoryFS(), "/home/user/.config/s3upload")

	require.NoError(t, store.Save(testCreds()))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, testCreds(), loaded)
}

// TestStore_PersistedFormat tests that the document keeps the documented
// JSON field names.
func TestStore_PersistedFormat(t *testing.T) {
	fsys := billy.NewInMemoryFS()
	store := New(fsys, "/home/user/.config/s3upload")
	require.NoError(t, store.Save(testCreds()))

	data, err := fsys.ReadFile("/home/user/.config/s3upload/credentials.json")
	require.NoError(t, err)

	var doc map[string]string
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, map[string]string{
		"accessKeyId":     "AKIA123",
		"secretAccessKey": "shh-secret",
		"endpoint":        "https://account.r2.cloudflarestorage.com",
		"bucket":          "media",
	}, doc)
}

// TestStore_Load_NotConfigured tests every shape of unusable document.
func TestStore_Load_NotConfigured(t *testing.T) {
	tests := []struct {
		name        string
		setup       func(t *testing.T, store *Store)
		errContains string
	}{
		{
			name:  "no document",
			setup: func(t *testing.T, store *Store) {},
		},
		{
			name: "malformed document",
			setup: func(t *testing.T, store *Store) {
				require.NoError(t, store.fsys.MkdirAll(store.dir, 0o700))
				require.NoError(t, store.fsys.WriteFile(store.Path(), []byte("{not json"), 0o600))
			},
			errContains: "malformed",
		},
		{
			name: "missing field",
			setup: func(t *testing.T, store *Store) {
				creds := testCreds()
				creds.Bucket = ""
				data, err := json.Marshal(creds)
				require.NoError(t, err)
				require.NoError(t, store.fsys.MkdirAll(store.dir, 0o700))
				require.NoError(t, store.fsys.WriteFile(store.Path(), data, 0o600))
			},
			errContains: "bucket",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := New(billy.NewInMemoryFS(), "/home/user/.config/s3upload")
			tt.setup(t, store)

			_, err := store.Load()
			require.Error(t, err)
			assert.True(t, errors.IsNotConfigured(err))
			if tt.errContains != "" {
				assert.Contains(t, err.Error(), tt.errContains)
			}
		})
	}
}

// TestStore_Save_RejectsIncomplete tests that partial credentials are
// never persisted.
func TestStore_Save_RejectsIncomplete(t *testing.T) {
	fsys := billy.NewInMemoryFS()
	store := New(fsys, "/home/user/.config/s3upload")

	creds := testCreds()
	creds.SecretAccessKey = ""

	err := store.Save(creds)
	require.Error(t, err)
	assert.True(t, errors.IsInvalidConfig(err))
	assert.Contains(t, err.Error(), "secretAccessKey")

	exists, err := fsys.Exists(store.Path())
	require.NoError(t, err)
	assert.False(t, exists, "incomplete credentials were written")
}

// TestStore_Path tests the document location.
func TestStore_Path(t *testing.T) {
	store := New(billy.NewInMemoryFS(), "/etc/s3upload")
	assert.Equal(t, "/etc/s3upload/credentials.json", store.Path())
}
