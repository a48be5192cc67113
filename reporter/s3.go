package reporter

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	appconfig "demandflow/config"
	"demandflow/logger"
	"demandflow/models"
)

// Archiver uploads opportunity parquet archives to S3, partitioned by store
// and run date.
type Archiver struct {
	cfg      appconfig.S3Config
	s3Client *s3.Client
	log      *logger.Entry
}

// NewArchiver builds the S3 client from static credentials when configured,
// falling back to the default AWS credential chain.
func NewArchiver(ctx context.Context, cfg appconfig.S3Config) (*Archiver, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
	})
	return &Archiver{
		cfg:      cfg,
		s3Client: s3Client,
		log:      logger.GetLogger().WithComponent("report_archiver"),
	}, nil
}

// Archive encodes the report as parquet and uploads it.
func (a *Archiver) Archive(ctx context.Context, report *models.ProductDiscoveryReport) (string, error) {
	data, err := BuildParquet(report)
	if err != nil {
		return "", err
	}
	key := a.objectKey(report, time.Now().UTC())
	input := &s3.PutObjectInput{
		Bucket: aws.String(a.cfg.Bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	}
	if _, err := a.s3Client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("upload report archive: %w", err)
	}
	a.log.WithFields(logger.Fields{
		"s3_key":  key,
		"records": len(report.Opportunities),
		"bytes":   len(data),
	}).Info("Report archive uploaded")
	return key, nil
}

func (a *Archiver) objectKey(report *models.ProductDiscoveryReport, now time.Time) string {
	parts := []string{
		a.cfg.Prefix,
		fmt.Sprintf("store=%s", DefaultFileStem(report.Profile.StoreName)),
		fmt.Sprintf("year=%04d", now.Year()),
		fmt.Sprintf("month=%02d", int(now.Month())),
		fmt.Sprintf("day=%02d", now.Day()),
		fmt.Sprintf("opportunities_%s.parquet", report.RunID),
	}
	if parts[0] == "" {
		parts = parts[1:]
	}
	return filepath.ToSlash(filepath.Join(parts...))
}
