package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"ecostock/internal/inventorycsv"
	"ecostock/internal/model"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/rs/zerolog"
)

// ObjectClient is the subset of the S3 API used by the S3 repository.
// *s3.Client satisfies it.
type ObjectClient interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// s3Repository implements InventoryRepository over one CSV object in S3.
// Writes upload the whole object; S3 replaces objects atomically.
type s3Repository struct {
	client ObjectClient
	bucket string
	key    string
	logger zerolog.Logger
}

// NewS3Repository creates an S3-backed inventory repository using the
// default AWS credential chain.
func NewS3Repository(ctx context.Context, bucket, region, key string, logger zerolog.Logger) (InventoryRepository, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		logger.Error().Err(err).Msg("failed to load AWS configuration")
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	logger.Info().
		Str("bucket", bucket).
		Str("region", region).
		Str("key", key).
		Msg("S3 inventory repository initialised")

	return NewS3RepositoryWithClient(s3.NewFromConfig(cfg), bucket, key, logger), nil
}

// NewS3RepositoryWithClient creates an S3-backed repository on an existing client.
func NewS3RepositoryWithClient(client ObjectClient, bucket, key string, logger zerolog.Logger) InventoryRepository {
	return &s3Repository{
		client: client,
		bucket: bucket,
		key:    key,
		logger: logger.With().Str("repository", "s3").Str("bucket", bucket).Str("key", key).Logger(),
	}
}

// LoadAll downloads and decodes the inventory object.
func (r *s3Repository) LoadAll(ctx context.Context) ([]model.InventoryRecord, error) {
	result, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(r.key),
	})
	if err != nil {
		r.logger.Warn().Err(err).Msg("failed to get inventory object from S3")
		return nil, unavailable(fmt.Errorf("failed to get object from S3 (bucket=%s, key=%s): %w", r.bucket, r.key, err))
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to read inventory object from S3")
		return nil, unavailable(fmt.Errorf("failed to read S3 object %s: %w", r.key, err))
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return []model.InventoryRecord{}, nil
	}

	records, err := inventorycsv.Decode(bytes.NewReader(data))
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to decode inventory object")
		return nil, fmt.Errorf("failed to decode S3 object %s: %w", r.key, err)
	}

	return records, nil
}

// Append downloads the object, adds the record and uploads the result.
// A missing object starts an empty inventory.
func (r *s3Repository) Append(ctx context.Context, record model.InventoryRecord) error {
	records, err := r.loadForWrite(ctx)
	if err != nil {
		return err
	}

	records = append(records, record)
	if err := r.put(ctx, records); err != nil {
		return err
	}

	r.logger.Info().
		Str("product", record.Product).
		Str("store_id", string(record.StoreID)).
		Int("count", len(records)).
		Msg("inventory record appended")
	return nil
}

// DeleteMatching uploads the object without the matching records.
func (r *s3Repository) DeleteMatching(ctx context.Context, key model.IdentityKey) (int, error) {
	records, err := r.loadForWrite(ctx)
	if err != nil {
		return 0, err
	}

	kept := records[:0:0]
	for _, rec := range records {
		if !key.Matches(rec) {
			kept = append(kept, rec)
		}
	}

	removed := len(records) - len(kept)
	if removed == 0 {
		return 0, nil
	}

	if err := r.put(ctx, kept); err != nil {
		return 0, err
	}

	r.logger.Info().
		Str("product", key.Product).
		Int("removed", removed).
		Msg("inventory records deleted")
	return removed, nil
}

func (r *s3Repository) loadForWrite(ctx context.Context) ([]model.InventoryRecord, error) {
	records, err := r.LoadAll(ctx)
	if err != nil {
		if isNoSuchKey(err) {
			return []model.InventoryRecord{}, nil
		}
		return nil, err
	}
	return records, nil
}

func (r *s3Repository) put(ctx context.Context, records []model.InventoryRecord) error {
	var buf bytes.Buffer
	if err := inventorycsv.Encode(&buf, records); err != nil {
		return fmt.Errorf("failed to encode inventory: %w", err)
	}

	_, err := r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r.bucket),
		Key:         aws.String(r.key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("text/csv"),
	})
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to put inventory object to S3")
		return unavailable(fmt.Errorf("failed to put object to S3 (bucket=%s, key=%s): %w", r.bucket, r.key, err))
	}

	return nil
}

func isNoSuchKey(err error) bool {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode() == "NoSuchKey" || apiErr.ErrorCode() == "NotFound"
	}
	return false
}
