package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
)

// BlobService stores attachment bytes in Azure Blob Storage. The protocol
// is additive upload and explicit deletion only; there is no in-place
// replace.
type BlobService struct {
	serviceURL string
	client     *azblob.Client
}

// NewBlobService creates a new BlobService instance.
func NewBlobService() (*BlobService, error) {
	blobURL := os.Getenv("BLOB_SERVICE_URL")
	if blobURL == "" {
		return nil, fmt.Errorf("BLOB_SERVICE_URL environment variable is required")
	}

	slog.Info("initializing blob service", "blob_url", blobURL)
	var client *azblob.Client

	if isLocal(blobURL) {
		slog.Info("using Azurite shared key credentials for blob service")
		name, key := azuriteCredentials()
		cred, err := azblob.NewSharedKeyCredential(name, key)
		if err != nil {
			return nil, fmt.Errorf("failed to create shared key credential: %w", err)
		}
		client, err = azblob.NewClientWithSharedKeyCredential(blobURL, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create blob client with shared key: %w", err)
		}
	} else {
		cred, err := newDefaultAzureCredential()
		if err != nil {
			return nil, fmt.Errorf("failed to create default azure credential: %w", err)
		}
		client, err = azblob.NewClient(blobURL, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create blob client: %w", err)
		}
	}

	return &BlobService{serviceURL: blobURL, client: client}, nil
}

// UploadFile uploads attachment bytes and returns the blob URL.
func (s *BlobService) UploadFile(ctx context.Context, containerName, blobName string, content []byte, contentType string) (string, error) {
	slog.Info("uploading blob", "container", containerName, "blob_name", blobName, "size_bytes", len(content))

	// Create container if not exists (mostly for dev)
	_, err := s.client.CreateContainer(ctx, containerName, nil)
	if err != nil && !strings.Contains(err.Error(), "ContainerAlreadyExists") {
		slog.Warn("failed to create container (may already exist)", "container", containerName, "error", err)
	}

	opts := &azblob.UploadBufferOptions{}
	if contentType != "" {
		opts.HTTPHeaders = &blob.HTTPHeaders{BlobContentType: &contentType}
	}

	if _, err := s.client.UploadBuffer(ctx, containerName, blobName, content, opts); err != nil {
		slog.Error("failed to upload blob", "container", containerName, "blob_name", blobName, "error", err)
		return "", fmt.Errorf("failed to upload blob %s/%s: %w", containerName, blobName, err)
	}

	url := fmt.Sprintf("%s/%s/%s", strings.TrimRight(s.serviceURL, "/"), containerName, blobName)
	slog.Info("successfully uploaded blob", "container", containerName, "blob_name", blobName, "url", url)
	return url, nil
}

// DownloadFile downloads attachment bytes.
func (s *BlobService) DownloadFile(ctx context.Context, containerName, blobName string) ([]byte, error) {
	slog.Info("downloading blob", "container", containerName, "blob_name", blobName)

	resp, err := s.client.DownloadStream(ctx, containerName, blobName, nil)
	if err != nil {
		slog.Error("failed to download blob", "container", containerName, "blob_name", blobName, "error", err)
		return nil, fmt.Errorf("failed to download blob %s/%s: %w", containerName, blobName, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read blob content: %w", err)
	}

	slog.Info("successfully downloaded blob", "container", containerName, "blob_name", blobName, "size_bytes", len(data))
	return data, nil
}

// DeleteFile removes a blob. Deleting an already-absent blob is not an
// error: the working set the user submitted no longer references it either
// way.
func (s *BlobService) DeleteFile(ctx context.Context, containerName, blobName string) error {
	slog.Info("deleting blob", "container", containerName, "blob_name", blobName)

	if _, err := s.client.DeleteBlob(ctx, containerName, blobName, nil); err != nil {
		if strings.Contains(err.Error(), "BlobNotFound") {
			slog.Warn("blob already absent", "container", containerName, "blob_name", blobName)
			return nil
		}
		slog.Error("failed to delete blob", "container", containerName, "blob_name", blobName, "error", err)
		return fmt.Errorf("failed to delete blob %s/%s: %w", containerName, blobName, err)
	}
	return nil
}
