// Package storage хранит архивы экспорта в объектном хранилище.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// FileStorage определяет интерфейс для взаимодействия с объектным хранилищем.
type FileStorage interface {
	UploadFile(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) error
	DownloadFile(ctx context.Context, objectKey string) (io.ReadCloser, error)
	DeleteFile(ctx context.Context, objectKey string) error
}

// MinioClient реализует FileStorage для MinIO.
type MinioClient struct {
	client     *minio.Client
	bucketName string
}

var _ FileStorage = (*MinioClient)(nil)

// MinioConfig содержит параметры для подключения к MinIO.
type MinioConfig struct {
	Endpoint        string // Адрес MinIO (например, "localhost:9000")
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
	BucketName      string
	Region          string
}

// NewMinioClient создает клиент MinIO и при необходимости создает бакет.
func NewMinioClient(ctx context.Context, cfg MinioConfig) (*MinioClient, error) {
	log.Printf("Инициализация клиента MinIO для эндпоинта %s...", cfg.Endpoint)

	minioClient, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации клиента MinIO: %w", err)
	}

	exists, err := minioClient.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("ошибка проверки существования бакета '%s': %w", cfg.BucketName, err)
	}
	if !exists {
		log.Printf("Бакет '%s' не найден, попытка создания...", cfg.BucketName)
		err = minioClient.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{Region: cfg.Region})
		if err != nil {
			return nil, fmt.Errorf("ошибка создания бакета '%s': %w", cfg.BucketName, err)
		}
		log.Printf("Бакет '%s' успешно создан.", cfg.BucketName)
	}

	log.Printf("Клиент MinIO успешно инициализирован для бакета '%s'.", cfg.BucketName)
	return &MinioClient{
		client:     minioClient,
		bucketName: cfg.BucketName,
	}, nil
}

// UploadFile загружает объект в бакет.
func (c *MinioClient) UploadFile(
	ctx context.Context,
	objectKey string,
	reader io.Reader,
	size int64,
	contentType string,
) error {
	uploadInfo, err := c.client.PutObject(ctx, c.bucketName, objectKey, reader, size,
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		log.Printf("[Minio] Ошибка загрузки файла '%s': %v", objectKey, err)
		return fmt.Errorf("ошибка загрузки файла в MinIO: %w", err)
	}

	log.Printf("[Minio] Файл '%s' загружен, размер: %d, ETag: %s", objectKey, uploadInfo.Size, uploadInfo.ETag)
	return nil
}

// DownloadFile возвращает содержимое объекта. Вызывающий закрывает ReadCloser.
func (c *MinioClient) DownloadFile(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	object, err := c.client.GetObject(ctx, c.bucketName, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, c.translateError(objectKey, err)
	}

	// GetObject ленивый: отсутствие объекта обнаруживается только при Stat или первом чтении
	if _, err = object.Stat(); err != nil {
		_ = object.Close()
		return nil, c.translateError(objectKey, err)
	}

	return object, nil
}

// DeleteFile удаляет объект. Удаление отсутствующего объекта не считается ошибкой.
func (c *MinioClient) DeleteFile(ctx context.Context, objectKey string) error {
	if err := c.client.RemoveObject(ctx, c.bucketName, objectKey, minio.RemoveObjectOptions{}); err != nil {
		log.Printf("[Minio] Ошибка удаления файла '%s': %v", objectKey, err)
		return fmt.Errorf("ошибка удаления файла из MinIO: %w", err)
	}
	return nil
}

func (c *MinioClient) translateError(objectKey string, err error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		log.Printf("[Minio] Файл '%s' не найден в бакете '%s'", objectKey, c.bucketName)
		return ErrObjectNotFound
	}
	log.Printf("[Minio] Ошибка получения файла '%s': %v", objectKey, err)
	return fmt.Errorf("ошибка получения файла из MinIO: %w", err)
}

// Кастомная ошибка хранилища.
var (
	ErrObjectNotFound = errors.New("объект не найден в хранилище")
)
