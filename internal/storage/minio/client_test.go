package minio

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	minioLib "github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeMinio implements minioAPI for testing without network.
type fakeMinio struct {
	bucketExists    bool
	bucketExistsErr error
	makeBucketErr   error

	putInfo  minioLib.UploadInfo
	putErr   error
	putOpts  minioLib.PutObjectOptions
	putKey   string
	putCalls int

	getRC  io.ReadCloser
	getErr error

	removeErr error

	statInfo minioLib.ObjectInfo
	statErr  error
}

func (f *fakeMinio) BucketExists(_ context.Context, _ string) (bool, error) {
	return f.bucketExists, f.bucketExistsErr
}
func (f *fakeMinio) MakeBucket(_ context.Context, _ string, _ minioLib.MakeBucketOptions) error {
	return f.makeBucketErr
}
func (f *fakeMinio) PutObject(_ context.Context, _ string, key string, _ io.Reader, _ int64, opts minioLib.PutObjectOptions) (minioLib.UploadInfo, error) {
	f.putCalls++
	f.putKey = key
	f.putOpts = opts
	return f.putInfo, f.putErr
}
func (f *fakeMinio) GetObject(_ context.Context, _ string, _ string, _ minioLib.GetObjectOptions) (io.ReadCloser, error) {
	return f.getRC, f.getErr
}
func (f *fakeMinio) RemoveObject(_ context.Context, _ string, _ string, _ minioLib.RemoveObjectOptions) error {
	return f.removeErr
}
func (f *fakeMinio) StatObject(_ context.Context, _ string, _ string, _ minioLib.StatObjectOptions) (minioLib.ObjectInfo, error) {
	return f.statInfo, f.statErr
}

func TestNewClientWithAPI_BucketExists(t *testing.T) {
	ctx := context.Background()
	api := &fakeMinio{bucketExists: true}
	c, err := NewClientWithAPI(ctx, api, "voice-notes")
	require.NoError(t, err)
	assert.NotNil(t, c)
	assert.Equal(t, "voice-notes", c.bucket)
}

func TestNewClientWithAPI_CreateBucket(t *testing.T) {
	ctx := context.Background()
	api := &fakeMinio{bucketExists: false}
	c, err := NewClientWithAPI(ctx, api, "voice-notes")
	require.NoError(t, err)
	assert.Equal(t, "voice-notes", c.bucket)
}

func TestNewClientWithAPI_BucketCheckError(t *testing.T) {
	ctx := context.Background()
	api := &fakeMinio{bucketExistsErr: errors.New("boom")}
	c, err := NewClientWithAPI(ctx, api, "voice-notes")
	assert.Nil(t, c)
	assert.ErrorContains(t, err, "failed to ensure bucket exists")
}

func TestClient_Upload(t *testing.T) {
	ctx := context.Background()

	t.Run("success sets audio content type", func(t *testing.T) {
		api := &fakeMinio{}
		c := &Client{api: api, bucket: "b"}
		err := c.Upload(ctx, "voice/42/100.oga", bytes.NewReader([]byte("data")))
		require.NoError(t, err)
		assert.Equal(t, 1, api.putCalls)
		assert.Equal(t, "voice/42/100.oga", api.putKey)
		assert.Equal(t, "audio/ogg", api.putOpts.ContentType)
	})

	t.Run("error", func(t *testing.T) {
		api := &fakeMinio{putErr: errors.New("put-fail")}
		c := &Client{api: api, bucket: "b"}
		err := c.Upload(ctx, "k", bytes.NewReader([]byte("data")))
		assert.ErrorContains(t, err, "failed to upload voice note")
	})
}

func TestClient_Download(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		api := &fakeMinio{getRC: io.NopCloser(bytes.NewReader([]byte("abc")))}
		c := &Client{api: api, bucket: "b"}
		rc, err := c.Download(ctx, "k")
		require.NoError(t, err)
		defer rc.Close()
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, []byte("abc"), data)
	})

	t.Run("error", func(t *testing.T) {
		api := &fakeMinio{getErr: errors.New("get-fail")}
		c := &Client{api: api, bucket: "b"}
		_, err := c.Download(ctx, "k")
		assert.ErrorContains(t, err, "failed to get voice note")
	})
}

func TestClient_Delete(t *testing.T) {
	ctx := context.Background()

	api := &fakeMinio{removeErr: errors.New("remove-fail")}
	c := &Client{api: api, bucket: "b"}
	assert.ErrorContains(t, c.Delete(ctx, "k"), "failed to delete voice note")

	api = &fakeMinio{}
	c = &Client{api: api, bucket: "b"}
	assert.NoError(t, c.Delete(ctx, "k"))
}
