package archive

import (
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/newthinker/signalpro/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ Storage = (*S3Storage)(nil)

func TestS3Storage_Key(t *testing.T) {
	tests := []struct {
		prefix string
		path   string
		want   string
	}{
		{"", "snapshot.json", "snapshot.json"},
		{"signalpro", "snapshot.json", "signalpro/snapshot.json"},
		{"signalpro/", "reports/2025/snapshot.json", "signalpro/reports/2025/snapshot.json"},
	}

	for _, tt := range tests {
		s := &S3Storage{prefix: strings.TrimSuffix(tt.prefix, "/")}
		assert.Equal(t, tt.want, s.key(tt.path), "prefix %q", tt.prefix)
		assert.Equal(t, tt.path, s.relative(s.key(tt.path)))
	}
}

func TestNewS3_RequiresBucket(t *testing.T) {
	_, err := NewS3(S3Config{Region: "us-east-1"})
	assert.ErrorIs(t, err, core.ErrArchiveFailed)

	s, err := NewS3(S3Config{Bucket: "reports", Region: "us-east-1", Endpoint: "http://localhost:9000", Prefix: "sp/"})
	require.NoError(t, err)
	assert.Equal(t, "sp", s.prefix)
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "application/json", contentType("a/b.json"))
	assert.Equal(t, "image/png", contentType("chart.png"))
	assert.Equal(t, "application/octet-stream", contentType("blob"))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, isNotFound(&types.NotFound{}))
	assert.True(t, isNotFound(&types.NoSuchKey{}))
	assert.True(t, isNotFound(errors.New("operation error S3: HeadObject, https response error StatusCode: 404")))
	assert.False(t, isNotFound(errors.New("access denied")))
}
