package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	e "github.com/gartstein/professionals/internal/professional/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestLocalStore(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocalStore(filepath.Join(root, "media"), "http://localhost:8080/", zaptest.NewLogger(t))
	require.NoError(t, err)
	ctx := context.Background()

	key := "resumes/professional_1/abc-cv.pdf"
	require.NoError(t, store.Put(ctx, key, []byte("%PDF-1.4"), "application/pdf"))

	onDisk, err := os.ReadFile(filepath.Join(root, "media", "resumes", "professional_1", "abc-cv.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(onDisk))

	data, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4"), data)

	assert.Equal(t, "http://localhost:8080/media/resumes/professional_1/abc-cv.pdf", store.URL(key))

	_, err = store.Get(ctx, "resumes/professional_1/missing.pdf")
	assert.ErrorIs(t, err, e.ErrNotFound)

	entries, err := os.ReadDir(filepath.Join(root, "media", "resumes", "professional_1"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files are left behind")
}

func TestLocalStoreRejectsEscapingKeys(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "", zaptest.NewLogger(t))
	require.NoError(t, err)

	for _, key := range []string{"../outside.pdf", "resumes/../../etc/passwd", ""} {
		err := store.Put(context.Background(), key, []byte("x"), "text/plain")
		assert.ErrorIs(t, err, e.ErrInvalidInput, key)
	}
}

// MockS3 implements S3API for testing.
type MockS3 struct {
	mock.Mock
}

func (m *MockS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, in)
	if out, ok := args.Get(0).(*s3.PutObjectOutput); ok {
		return out, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	args := m.Called(ctx, in)
	if out, ok := args.Get(0).(*s3.GetObjectOutput); ok {
		return out, args.Error(1)
	}
	return nil, args.Error(1)
}

func TestS3StorePut(t *testing.T) {
	client := new(MockS3)
	store := NewS3StoreWithClient(client, S3Config{Bucket: "resumes", Endpoint: "http://minio:9000"}, zaptest.NewLogger(t))

	client.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		return *in.Bucket == "resumes" && *in.Key == "resumes/professional_1/cv.pdf" &&
			*in.ContentType == "application/pdf" && *in.ContentLength == 4
	})).Return(&s3.PutObjectOutput{}, nil)

	require.NoError(t, store.Put(context.Background(), "resumes/professional_1/cv.pdf", []byte("%PDF"), "application/pdf"))
	client.AssertExpectations(t)

	client.ExpectedCalls = nil
	client.On("PutObject", mock.Anything, mock.Anything).Return(nil, errors.New("access denied"))
	err := store.Put(context.Background(), "k", []byte("x"), "text/plain")
	assert.ErrorContains(t, err, "access denied")
}

func TestS3StoreGet(t *testing.T) {
	client := new(MockS3)
	store := NewS3StoreWithClient(client, S3Config{Bucket: "resumes"}, zaptest.NewLogger(t))

	client.On("GetObject", mock.Anything, mock.MatchedBy(func(in *s3.GetObjectInput) bool {
		return *in.Key == "present"
	})).Return(&s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader([]byte("hello")))}, nil)
	client.On("GetObject", mock.Anything, mock.MatchedBy(func(in *s3.GetObjectInput) bool {
		return *in.Key == "absent"
	})).Return(nil, &types.NoSuchKey{})

	data, err := store.Get(context.Background(), "present")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	_, err = store.Get(context.Background(), "absent")
	assert.ErrorIs(t, err, e.ErrNotFound)
}

func TestS3StoreURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  S3Config
		want string
	}{
		{"public url", S3Config{Bucket: "b", Endpoint: "http://minio:9000", PublicURL: "https://cdn.example.com/"}, "https://cdn.example.com/b/k.pdf"},
		{"endpoint", S3Config{Bucket: "b", Endpoint: "http://minio:9000"}, "http://minio:9000/b/k.pdf"},
		{"aws", S3Config{Bucket: "b", Region: "eu-west-1"}, "https://b.s3.eu-west-1.amazonaws.com/k.pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewS3StoreWithClient(new(MockS3), tt.cfg, zaptest.NewLogger(t))
			assert.Equal(t, tt.want, store.URL("k.pdf"))
		})
	}
}
