package export

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/devcms/internal/client/eventstore"
	"github.com/dmitrijs2005/devcms/internal/client/localdb"
	"github.com/dmitrijs2005/devcms/internal/client/models"
	"github.com/dmitrijs2005/devcms/internal/client/repositories/kv"
	"github.com/dmitrijs2005/devcms/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var exportTime = time.Date(2024, 3, 5, 10, 20, 30, 0, time.UTC)

func setup(t *testing.T) (*Exporter, *localdb.Engine, *eventstore.EventStore) {
	t.Helper()
	e := localdb.New(filepath.Join(t.TempDir(), "export.db"), logging.Nop())
	t.Cleanup(func() { _ = e.Close() })
	es := eventstore.New(e, logging.Nop())
	x := New(e, es, logging.Nop())
	x.now = func() time.Time { return exportTime }
	return x, e, es
}

func TestSnapshot_Empty(t *testing.T) {
	x, _, _ := setup(t)
	snap, err := x.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1.1", snap.Version)
	assert.Equal(t, "2024-03-05T10:20:30.000Z", snap.ExportedAt)
	assert.Nil(t, snap.Auth)
	assert.Nil(t, snap.Stats)
	assert.NotNil(t, snap.Events)
	assert.Empty(t, snap.Events)
}

func TestWriteFile(t *testing.T) {
	x, e, es := setup(t)
	ctx := context.Background()

	_, err := es.WriteEvent(ctx, models.EventInput{
		AggregateID: "p1", AggregateType: models.AggregatePost, EventType: models.EventPostCreated,
		Payload: map[string]any{"title": "Hello"}, Version: 1,
	})
	require.NoError(t, err)
	require.NoError(t, e.Update(ctx, func(ctx context.Context, tx *localdb.Tx) error {
		if err := kv.NewLocalRepository(tx, localdb.Auth).Set(ctx, kv.SessionKey,
			models.Session{User: models.Identity{ID: "1", Email: "a@b.c"}, CachedAt: "2024-03-01T00:00:00.000Z"}); err != nil {
			return err
		}
		return kv.NewLocalRepository(tx, localdb.Stats).Set(ctx, kv.StatsKey, models.Stats{Posts: 3})
	}))

	dir := filepath.Join(t.TempDir(), "exports")
	path, err := x.WriteFile(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "devcms-export-20240305T102030000Z.json"), path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var snap Snapshot
	require.NoError(t, json.Unmarshal(raw, &snap))
	require.Len(t, snap.Events, 1)
	assert.Equal(t, "p1", snap.Events[0].AggregateID)
	require.NotNil(t, snap.Auth)
	assert.Equal(t, "a@b.c", snap.Auth.User.Email)
	require.NotNil(t, snap.Stats)
	assert.Equal(t, int64(3), snap.Stats.Posts)
}

type fakeUploader struct {
	key  string
	body []byte
	err  error
}

func (f *fakeUploader) Upload(_ context.Context, key string, body []byte) error {
	f.key, f.body = key, body
	return f.err
}

func TestUpload(t *testing.T) {
	x, _, _ := setup(t)
	up := &fakeUploader{}

	key, err := x.Upload(context.Background(), up, "backups/")
	require.NoError(t, err)
	assert.Equal(t, "backups/devcms-export-20240305T102030000Z.json", key)
	assert.Equal(t, key, up.key)
	assert.Contains(t, string(up.body), `"version": "1.1"`)

	up.err = errors.New("boom")
	_, err = x.Upload(context.Background(), up, "")
	require.ErrorContains(t, err, "upload devcms-export-")
}

type fakePutter struct {
	in  *s3.PutObjectInput
	err error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.in = in
	return &s3.PutObjectOutput{}, f.err
}

func TestNewS3Uploader(t *testing.T) {
	origLoad, origNew := loadAWSConfig, newS3FromConfig
	t.Cleanup(func() { loadAWSConfig, newS3FromConfig = origLoad, origNew })

	var (
		lo   config.LoadOptions
		opts s3.Options
	)
	putter := &fakePutter{}
	loadAWSConfig = func(ctx context.Context, optFns ...func(*config.LoadOptions) error) (aws.Config, error) {
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		return aws.Config{Region: lo.Region}, nil
	}
	newS3FromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) objectPutter {
		for _, fn := range optFns {
			fn(&opts)
		}
		return putter
	}

	up, err := NewS3Uploader(context.Background(), S3Config{
		Region: "us-east-1", Endpoint: "http://127.0.0.1:9000", Bucket: "devcms",
		AccessKey: "minioadmin", SecretKey: "minioadmin",
	})
	require.NoError(t, err)
	assert.Equal(t, "us-east-1", lo.Region)
	require.NotNil(t, lo.Credentials)
	creds, err := lo.Credentials.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "minioadmin", creds.AccessKeyID)
	assert.Equal(t, "http://127.0.0.1:9000", aws.ToString(opts.BaseEndpoint))
	assert.True(t, opts.UsePathStyle)

	require.NoError(t, up.Upload(context.Background(), "k.json", []byte(`{}`)))
	assert.Equal(t, "devcms", aws.ToString(putter.in.Bucket))
	assert.Equal(t, "k.json", aws.ToString(putter.in.Key))
	assert.Equal(t, "application/json", aws.ToString(putter.in.ContentType))
}

func TestNewS3Uploader_Errors(t *testing.T) {
	_, err := NewS3Uploader(context.Background(), S3Config{})
	require.ErrorIs(t, err, ErrNoBucket)

	origLoad := loadAWSConfig
	t.Cleanup(func() { loadAWSConfig = origLoad })
	loadAWSConfig = func(context.Context, ...func(*config.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("no config")
	}
	_, err = NewS3Uploader(context.Background(), S3Config{Bucket: "b"})
	require.EqualError(t, err, "no config")
}
