package artifact

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_Put(t *testing.T) {
	dir := t.TempDir()
	s := &FileStore{Dir: dir}

	loc, err := s.Put(context.Background(), "run-1", AnnotatedName, []byte("png"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "run-1", AnnotatedName), loc)

	data, err := os.ReadFile(loc)
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))
}

func TestObjectKey(t *testing.T) {
	key, err := objectKey(" run ", "/annotated.png")
	require.NoError(t, err)
	assert.Equal(t, "run/annotated.png", key)

	for _, tt := range [][2]string{{"", "a.png"}, {"run", ""}, {"..", "a.png"}, {"run", "../a.png"}} {
		_, err := objectKey(tt[0], tt[1])
		assert.Error(t, err, "%q/%q", tt[0], tt[1])
	}
}

func TestNewRunID(t *testing.T) {
	a, b := NewRunID(), NewRunID()
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 36)
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "image/png", contentType("annotated.png"))
	assert.Equal(t, "application/json", contentType("report.json"))
	assert.Equal(t, "application/octet-stream", contentType("blob"))
}

func TestNewS3Store_Validation(t *testing.T) {
	_, err := NewS3Store(S3Config{})
	assert.Error(t, err)
	_, err = NewS3Store(S3Config{Endpoint: "minio:9000"})
	assert.Error(t, err)
	_, err = NewS3Store(S3Config{Endpoint: "minio:9000", AccessKey: "a", SecretKey: "b"})
	assert.Error(t, err)

	s, err := NewS3Store(S3Config{Endpoint: "minio:9000", AccessKey: "a", SecretKey: "b", Bucket: "x"})
	require.NoError(t, err)
	assert.Equal(t, "us-east-1", s.region)
}
