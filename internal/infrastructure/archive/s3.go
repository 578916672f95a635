// Package archive uploads cycle summaries to object storage.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"SelfEarnBot/internal/domain"
	"SelfEarnBot/internal/ports"
)

var _ ports.ReportArchiver = (*S3Archiver)(nil)

type uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3Archiver writes cycle summaries to keys like
//
//	<prefix>/cycles/YYYY/MM/DD/<number>-<cycleID>.json
type S3Archiver struct {
	bucket   string
	prefix   string
	uploader uploader
	location *time.Location
}

// Option customizes an S3Archiver.
type Option func(*S3Archiver)

// WithLocation partitions keys by the calendar day in loc instead of UTC.
func WithLocation(loc *time.Location) Option {
	return func(a *S3Archiver) {
		if loc != nil {
			a.location = loc
		}
	}
}

// NewS3Archiver picks up region and credentials from the environment
// (AWS_REGION, AWS_PROFILE, AWS_ACCESS_KEY_ID and friends).
func NewS3Archiver(ctx context.Context, bucket, prefix string, opts ...Option) (*S3Archiver, error) {
	if bucket == "" {
		return nil, errors.New("archive: bucket required")
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(cfg)
	a := &S3Archiver{
		bucket:   bucket,
		prefix:   prefix,
		uploader: manager.NewUploader(client),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

type summaryDocument struct {
	CycleID    string  `json:"cycle_id"`
	Number     int     `json:"number"`
	StartedAt  string  `json:"started_at"`
	FinishedAt string  `json:"finished_at"`
	Found      int     `json:"found"`
	Selected   int     `json:"selected"`
	Attempted  int     `json:"attempted"`
	Generated  int     `json:"generated"`
	Published  int     `json:"published"`
	Pending    int     `json:"pending"`
	Skipped    int     `json:"skipped"`
	Failed     int     `json:"failed"`
	Revenue    float64 `json:"revenue"`
	Cost       float64 `json:"cost"`
	Profit     float64 `json:"profit"`
	Reinvested float64 `json:"reinvested"`
	Budget     float64 `json:"budget"`
	Aborted    bool    `json:"aborted"`
	Cancelled  bool    `json:"cancelled"`
}

// ObjectKey returns the key a summary is stored under.
func (a *S3Archiver) ObjectKey(s domain.CycleSummary) string {
	ts := s.StartedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	loc := a.location
	if loc == nil {
		loc = time.UTC
	}
	year, month, day := ts.In(loc).Date()
	return path.Join(a.prefix, "cycles",
		fmt.Sprintf("%04d", year),
		fmt.Sprintf("%02d", int(month)),
		fmt.Sprintf("%02d", day),
		fmt.Sprintf("%06d-%s.json", s.Number, s.CycleID),
	)
}

// ArchiveCycle uploads the summary as JSON with SSE-S3 encryption.
func (a *S3Archiver) ArchiveCycle(ctx context.Context, s domain.CycleSummary) error {
	body, err := json.Marshal(summaryDocument{
		CycleID:    s.CycleID,
		Number:     s.Number,
		StartedAt:  s.StartedAt.UTC().Format(time.RFC3339Nano),
		FinishedAt: s.FinishedAt.UTC().Format(time.RFC3339Nano),
		Found:      s.Found,
		Selected:   s.Selected,
		Attempted:  s.Attempted,
		Generated:  s.Generated,
		Published:  s.Published,
		Pending:    s.Pending,
		Skipped:    s.Skipped,
		Failed:     s.Failed,
		Revenue:    s.Revenue,
		Cost:       s.Cost,
		Profit:     s.Profit,
		Reinvested: s.Reinvested,
		Budget:     s.Budget,
		Aborted:    s.Aborted,
		Cancelled:  s.Cancelled,
	})
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}

	_, err = a.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:               aws.String(a.bucket),
		Key:                  aws.String(a.ObjectKey(s)),
		Body:                 bytes.NewReader(body),
		ContentType:          aws.String("application/json"),
		ServerSideEncryption: s3types.ServerSideEncryptionAes256,
	})
	if err != nil {
		return fmt.Errorf("s3 upload failed: %w", err)
	}
	return nil
}
