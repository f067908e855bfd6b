package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioClient holds the MinIO client and bucket name for answer-audio
// recordings. The handle is constructed once at startup and passed to the
// components that need it; there is no package-global instance.
type MinioClient struct {
	Client     *minio.Client
	BucketName string
}

// InitMinioClient builds a MinIO client from environment variables.
// This should be called at application startup.
func InitMinioClient() (*MinioClient, error) {
	endpoint := os.Getenv("MINIO_ENDPOINT")
	accessKeyID := os.Getenv("MINIO_ACCESS_KEY_ID")
	secretAccessKey := os.Getenv("MINIO_SECRET_ACCESS_KEY")
	bucketName := os.Getenv("MINIO_BUCKET_NAME")
	useSSLStr := os.Getenv("MINIO_USE_SSL")

	if endpoint == "" || accessKeyID == "" || secretAccessKey == "" || bucketName == "" {
		return nil, fmt.Errorf("MINIO_ENDPOINT, MINIO_ACCESS_KEY_ID, MINIO_SECRET_ACCESS_KEY, and MINIO_BUCKET_NAME must be set")
	}

	useSSL, err := strconv.ParseBool(useSSLStr)
	if err != nil {
		log.Printf("Warning: MINIO_USE_SSL environment variable is not a valid boolean ('%s'). Defaulting to false. Error: %v", useSSLStr, err)
		useSSL = false
	}

	minioClient, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKeyID, secretAccessKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MinIO client: %w", err)
	}

	// Check if bucket exists, create if not
	ctx := context.Background()
	exists, err := minioClient.BucketExists(ctx, bucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to check if MinIO bucket '%s' exists: %w", bucketName, err)
	}
	if !exists {
		log.Printf("MinIO bucket '%s' does not exist. Attempting to create it.", bucketName)
		if err := minioClient.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create MinIO bucket '%s': %w", bucketName, err)
		}
		log.Printf("MinIO bucket '%s' created successfully.", bucketName)
	}

	log.Println("MinIO client initialized successfully.")
	return &MinioClient{
		Client:     minioClient,
		BucketName: bucketName,
	}, nil
}

// GetFileBytes retrieves an object from the bucket as a byte slice.
// Missing objects surface as a minio ErrorResponse with code NoSuchKey.
func (mc *MinioClient) GetFileBytes(ctx context.Context, objectName string) ([]byte, error) {
	if mc.Client == nil {
		return nil, fmt.Errorf("MinIO client not initialized properly in MinioClient struct")
	}
	if mc.BucketName == "" {
		return nil, fmt.Errorf("MinIO bucket name not configured in MinioClient struct")
	}

	object, err := mc.Client.GetObject(ctx, mc.BucketName, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object '%s' from bucket '%s': %w", objectName, mc.BucketName, err)
	}
	defer object.Close()

	data, err := io.ReadAll(object)
	if err != nil {
		return nil, fmt.Errorf("failed to read object '%s' data: %w", objectName, err)
	}

	return data, nil
}

// IsNotFound reports whether an object-store error means the object does not
// exist, as opposed to a transport or permission failure.
func IsNotFound(err error) bool {
	var resp minio.ErrorResponse
	if !errors.As(err, &resp) {
		return false
	}
	return resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket"
}
