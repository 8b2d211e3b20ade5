package archive

import (
	"testing"

	"github.com/newthinker/signalpro/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	st, err := New(config.ArchiveConfig{Type: "localfs", Path: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &LocalFS{}, st)

	st, err = New(config.ArchiveConfig{Type: "s3", S3: config.S3Config{Bucket: "b", Region: "eu-west-1"}})
	require.NoError(t, err)
	assert.IsType(t, &S3Storage{}, st)

	_, err = New(config.ArchiveConfig{Type: "gcs"})
	assert.Error(t, err)
}
