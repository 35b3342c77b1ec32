package config

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/mitchellh/mapstructure"
	"github.com/rs/zerolog/log"

	"github.com/nimbusdrive/nimbus/pkg/content"
	contentFS "github.com/nimbusdrive/nimbus/pkg/content/fs"
	contentMem "github.com/nimbusdrive/nimbus/pkg/content/memory"
	contentS3 "github.com/nimbusdrive/nimbus/pkg/content/s3"
	"github.com/nimbusdrive/nimbus/pkg/drive"
	driveBadger "github.com/nimbusdrive/nimbus/pkg/drive/badger"
	driveMem "github.com/nimbusdrive/nimbus/pkg/drive/memory"
)

// badgerStoreConfig is the decoded metadata.badger section.
type badgerStoreConfig struct {
	Path       string `mapstructure:"path"`
	InMemory   bool   `mapstructure:"in_memory"`
	SyncWrites bool   `mapstructure:"sync_writes"`
}

// fsStoreConfig is the decoded content.filesystem section.
type fsStoreConfig struct {
	Path string `mapstructure:"path"`
}

// s3StoreConfig is the decoded content.s3 section.
type s3StoreConfig struct {
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	KeyPrefix       string `mapstructure:"key_prefix"`
}

// CreateMetadataStore builds the metadata store selected by
// cfg.Metadata.Type.
func CreateMetadataStore(cfg MetadataConfig) (drive.Store, error) {
	switch cfg.Type {
	case "memory":
		log.Info().Msg("using in-memory metadata store (data is ephemeral)")
		return driveMem.NewStore(), nil

	case "badger":
		var storeCfg badgerStoreConfig
		if err := mapstructure.Decode(cfg.Badger, &storeCfg); err != nil {
			return nil, fmt.Errorf("decoding badger config: %w", err)
		}

		store, err := driveBadger.NewStore(driveBadger.Options{
			Path:       storeCfg.Path,
			InMemory:   storeCfg.InMemory,
			SyncWrites: storeCfg.SyncWrites,
		})
		if err != nil {
			return nil, fmt.Errorf("creating badger store: %w", err)
		}
		log.Info().Str("path", storeCfg.Path).Msg("badger metadata store initialized")
		return store, nil

	default:
		return nil, fmt.Errorf("unknown metadata store type: %s", cfg.Type)
	}
}

// CreateContentStore builds the content store selected by
// cfg.Content.Type.
func CreateContentStore(ctx context.Context, cfg ContentConfig) (content.Store, error) {
	switch cfg.Type {
	case "memory":
		log.Info().Msg("using in-memory content store (data is ephemeral)")
		return contentMem.NewStore(), nil

	case "filesystem":
		var storeCfg fsStoreConfig
		if err := mapstructure.Decode(cfg.Filesystem, &storeCfg); err != nil {
			return nil, fmt.Errorf("decoding filesystem config: %w", err)
		}

		store, err := contentFS.NewStore(storeCfg.Path)
		if err != nil {
			return nil, fmt.Errorf("creating filesystem content store: %w", err)
		}
		log.Info().Str("path", storeCfg.Path).Msg("filesystem content store initialized")
		return store, nil

	case "s3":
		var storeCfg s3StoreConfig
		if err := mapstructure.Decode(cfg.S3, &storeCfg); err != nil {
			return nil, fmt.Errorf("decoding s3 config: %w", err)
		}

		client, err := newS3Client(ctx, storeCfg)
		if err != nil {
			return nil, err
		}

		store, err := contentS3.NewStore(contentS3.Config{
			Client:    client,
			Bucket:    storeCfg.Bucket,
			KeyPrefix: storeCfg.KeyPrefix,
		})
		if err != nil {
			return nil, fmt.Errorf("creating s3 content store: %w", err)
		}
		log.Info().
			Str("bucket", storeCfg.Bucket).
			Str("region", storeCfg.Region).
			Msg("s3 content store initialized")
		return store, nil

	default:
		return nil, fmt.Errorf("unknown content store type: %s", cfg.Type)
	}
}

// newS3Client builds an S3 client from the decoded section. A custom
// endpoint switches to path-style addressing for MinIO and Localstack.
func newS3Client(ctx context.Context, storeCfg s3StoreConfig) (*s3.Client, error) {
	options := []func(*awsConfig.LoadOptions) error{
		awsConfig.WithRegion(storeCfg.Region),
	}

	if storeCfg.AccessKeyID != "" && storeCfg.SecretAccessKey != "" {
		options = append(options, awsConfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				storeCfg.AccessKeyID,
				storeCfg.SecretAccessKey,
				"",
			),
		))
	}

	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, options...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if storeCfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(storeCfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}
