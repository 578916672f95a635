package archive

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SelfEarnBot/internal/domain"
)

type fakeUploader struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakeUploader) Upload(_ context.Context, in *s3.PutObjectInput, _ ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.input = in
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.body = b
	return &manager.UploadOutput{}, nil
}

func TestArchiveCycleUploadsPartitionedJSON(t *testing.T) {
	t.Parallel()

	up := &fakeUploader{}
	a := &S3Archiver{bucket: "bot-reports", prefix: "prod", uploader: up}

	summary := domain.CycleSummary{
		CycleID:   "abc",
		Number:    7,
		StartedAt: time.Date(2026, 2, 9, 23, 30, 0, 0, time.UTC),
		Published: 2,
		Profit:    12.5,
		Budget:    22.5,
	}
	require.NoError(t, a.ArchiveCycle(context.Background(), summary))

	require.NotNil(t, up.input)
	assert.Equal(t, "bot-reports", aws.ToString(up.input.Bucket))
	assert.Equal(t, "prod/cycles/2026/02/09/000007-abc.json", aws.ToString(up.input.Key))
	assert.Equal(t, "application/json", aws.ToString(up.input.ContentType))
	assert.Equal(t, s3types.ServerSideEncryptionAes256, up.input.ServerSideEncryption)

	var doc summaryDocument
	require.NoError(t, json.Unmarshal(up.body, &doc))
	assert.Equal(t, 7, doc.Number)
	assert.Equal(t, 2, doc.Published)
	assert.Equal(t, 12.5, doc.Profit)
}

func TestObjectKeyUsesConfiguredDay(t *testing.T) {
	t.Parallel()

	tokyo := time.FixedZone("JST", 9*60*60)
	s := domain.CycleSummary{
		CycleID:   "c1",
		Number:    3,
		StartedAt: time.Date(2026, 3, 31, 20, 0, 0, 0, time.UTC),
	}

	utc := &S3Archiver{prefix: "p"}
	assert.Equal(t, "p/cycles/2026/03/31/000003-c1.json", utc.ObjectKey(s))

	local := &S3Archiver{prefix: "p"}
	WithLocation(tokyo)(local)
	assert.Equal(t, "p/cycles/2026/04/01/000003-c1.json", local.ObjectKey(s))
}

func TestArchiveCycleWrapsUploadError(t *testing.T) {
	t.Parallel()

	a := &S3Archiver{bucket: "b", uploader: &fakeUploader{err: errors.New("AccessDenied")}}
	err := a.ArchiveCycle(context.Background(), domain.CycleSummary{CycleID: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AccessDenied")
}

func TestNewS3ArchiverRequiresBucket(t *testing.T) {
	t.Parallel()

	_, err := NewS3Archiver(context.Background(), "", "")
	assert.Error(t, err)
}
