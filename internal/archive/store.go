// Package archive keeps a record of every finished conversation: a full
// call log for operations and a redacted copy in S3.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/starskyline/bareerah/pkg/logging"
)

// S3API is the subset of the S3 client used by S3Store.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Store writes redacted call logs to S3. With no bucket every operation
// is a no-op.
type S3Store struct {
	bucket   string
	s3Client S3API
	logger   *logging.Logger
}

func NewS3Store(s3Client S3API, bucket string, logger *logging.Logger) *S3Store {
	if logger == nil {
		logger = logging.Default()
	}
	return &S3Store{bucket: bucket, s3Client: s3Client, logger: logger}
}

// Enabled returns true if archival is configured.
func (s *S3Store) Enabled() bool {
	return s != nil && s.bucket != "" && s.s3Client != nil
}

// Put writes the call log under a by-date key and appends it to the
// monthly manifest.
func (s *S3Store) Put(ctx context.Context, log *CallLog) error {
	if !s.Enabled() {
		return nil
	}
	log = log.Redacted()

	data, err := json.Marshal(log)
	if err != nil {
		return fmt.Errorf("archive: marshal call log: %w", err)
	}
	at := log.EndedAt
	if at.IsZero() {
		at = time.Now().UTC()
	}
	key := fmt.Sprintf("call-logs/v1/by-date/%d/%02d/%02d/%s.json", at.Year(), at.Month(), at.Day(), log.SessionID)

	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("archive: s3 put %s: %w", key, err)
	}
	s.logger.Info("archived call log", "session_id", log.SessionID, "s3_key", key, "outcome", log.Outcome)

	entry := ManifestEntry{
		SessionID:    log.SessionID,
		S3Key:        key,
		Channel:      log.Channel,
		Outcome:      log.Outcome,
		Language:     log.Language,
		FollowUp:     len(log.FollowUps) > 0,
		ArchivedAt:   at.Format(time.RFC3339),
		MessageCount: len(log.Messages),
	}
	if err := s.AppendManifest(ctx, at, entry); err != nil {
		s.logger.Warn("failed to append manifest", "error", err, "session_id", log.SessionID)
	}
	return nil
}

// AppendManifest adds a JSONL line to the month's manifest. S3 has no append,
// so this is a read-modify-write.
func (s *S3Store) AppendManifest(ctx context.Context, at time.Time, entry ManifestEntry) error {
	if !s.Enabled() {
		return nil
	}
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("archive: marshal manifest entry: %w", err)
	}
	key := fmt.Sprintf("call-logs/v1/manifests/%d-%02d.jsonl", at.Year(), at.Month())

	var existing []byte
	resp, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)})
	switch {
	case err == nil:
		existing, err = io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("archive: read manifest: %w", err)
		}
	case isNoSuchKey(err):
		s.logger.Debug("manifest not found, creating new", "key", key)
	default:
		return fmt.Errorf("archive: get manifest: %w", err)
	}

	var buf bytes.Buffer
	if len(existing) > 0 {
		buf.Write(existing)
		if existing[len(existing)-1] != '\n' {
			buf.WriteByte('\n')
		}
	}
	buf.Write(line)
	buf.WriteByte('\n')

	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("application/x-ndjson"),
	})
	if err != nil {
		return fmt.Errorf("archive: s3 put manifest: %w", err)
	}
	return nil
}

func isNoSuchKey(err error) bool {
	var nsk *s3types.NoSuchKey
	return errors.As(err, &nsk)
}
