// internal/services/storage_service.go
package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/stockcount/internal/config"
	"github.com/javajoker/stockcount/internal/models"
)

// ErrReportNotFound is returned when no archived report exists under a key.
var ErrReportNotFound = errors.New("report not found")

// StorageService archives closed-session count reports to S3, or to a local
// directory when no AWS credentials are configured.
type StorageService struct {
	s3Client *s3.S3
	config   *config.Config
}

var reportHeader = []string{
	"session_id", "warehouse_id", "month", "count_number",
	"product_code", "product_description", "measure_unit",
	"packaging_quantity", "total_units", "registered_at",
}

func NewStorageService(config *config.Config) (*StorageService, error) {
	if !config.AWS.HasAWSCredentials() {
		// Reports stay on the local filesystem
		return &StorageService{config: config}, nil
	}

	awsConfig := &aws.Config{
		Region: aws.String(config.AWS.Region),
		Credentials: credentials.NewStaticCredentials(
			config.AWS.AccessKeyID,
			config.AWS.SecretAccessKey,
			"",
		),
	}
	if config.AWS.Endpoint != "" {
		// MinIO and other S3-compatible stores
		awsConfig.Endpoint = aws.String(config.AWS.Endpoint)
		awsConfig.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &StorageService{
		s3Client: s3.New(sess),
		config:   config,
	}, nil
}

// ReportKey is where the report of a session is stored.
func (s *StorageService) ReportKey(sess *models.InventorySession) string {
	return path.Join(s.config.Storage.ReportsPrefix, sess.Month.UTC().Format("2006-01"), sess.ID.String()+".csv")
}

// ArchiveSessionReport writes the counts of a session as CSV and returns the
// storage key.
func (s *StorageService) ArchiveSessionReport(ctx context.Context, sess *models.InventorySession, counts []models.InventoryCount) (string, error) {
	report, err := buildReport(sess, counts)
	if err != nil {
		return "", err
	}

	key := s.ReportKey(sess)
	if s.s3Client != nil {
		err = s.uploadToS3(ctx, report, key)
	} else {
		err = s.writeLocal(report, key)
	}
	if err != nil {
		return "", err
	}

	logrus.WithFields(logrus.Fields{
		"session_id": sess.ID,
		"key":        key,
		"size":       len(report),
	}).Info("Inventory report archived")
	return key, nil
}

// OpenReport streams a previously archived report.
func (s *StorageService) OpenReport(ctx context.Context, key string) (io.ReadCloser, error) {
	if s.s3Client != nil {
		out, err := s.s3Client.GetObjectWithContext(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.config.AWS.S3Bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			var aerr awserr.Error
			if errors.As(err, &aerr) && aerr.Code() == s3.ErrCodeNoSuchKey {
				return nil, ErrReportNotFound
			}
			return nil, fmt.Errorf("failed to download from S3: %w", err)
		}
		return out.Body, nil
	}

	f, err := os.Open(s.localPath(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("failed to open report: %w", err)
	}
	return f, nil
}

// Remote reports whether reports live in S3.
func (s *StorageService) Remote() bool {
	return s.s3Client != nil
}

func (s *StorageService) GeneratePresignedURL(key string, expiration time.Duration) (string, error) {
	if s.s3Client == nil {
		return "", fmt.Errorf("S3 client not configured")
	}

	req, _ := s.s3Client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.config.AWS.S3Bucket),
		Key:    aws.String(key),
	})

	url, err := req.Presign(expiration)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return url, nil
}

func (s *StorageService) uploadToS3(ctx context.Context, report []byte, key string) error {
	_, err := s.s3Client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.config.AWS.S3Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(report),
		ContentType:   aws.String("text/csv"),
		ContentLength: aws.Int64(int64(len(report))),
	})
	if err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}
	return nil
}

func (s *StorageService) writeLocal(report []byte, key string) error {
	target := s.localPath(key)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	if err := os.WriteFile(target, report, 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func (s *StorageService) localPath(key string) string {
	return filepath.Join(s.config.Storage.LocalPath, filepath.FromSlash(key))
}

func buildReport(sess *models.InventorySession, counts []models.InventoryCount) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(reportHeader); err != nil {
		return nil, err
	}

	month := sess.Month.UTC().Format("2006-01")
	for _, c := range counts {
		var code, description, unit string
		if c.Product != nil {
			code, description = c.Product.Code, c.Product.Description
		}
		if c.MeasureUnit != nil {
			unit = c.MeasureUnit.Abbreviation
		}
		record := []string{
			sess.ID.String(),
			sess.WarehouseID.String(),
			month,
			strconv.Itoa(sess.CountNumber),
			code,
			description,
			unit,
			strconv.FormatInt(c.PackagingQuantity, 10),
			strconv.FormatInt(c.TotalUnits, 10),
			c.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to build report: %w", err)
	}
	return buf.Bytes(), nil
}
