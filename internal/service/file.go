package service

import (
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/korusync/korusync/internal/model"
	"github.com/korusync/korusync/internal/repository"
	"github.com/korusync/korusync/internal/storage"
	"github.com/korusync/korusync/internal/validation"
)

var avatarExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

type FileService struct {
	fileRepo repository.FileRepository
	storage  storage.Storage
}

func NewFileService(fileRepo repository.FileRepository, storage storage.Storage) *FileService {
	return &FileService{
		fileRepo: fileRepo,
		storage:  storage,
	}
}

// UploadAvatar validates the image by content, stores it and records it.
// The previous avatar is removed once the new one is saved.
func (s *FileService) UploadAvatar(userID string, header *multipart.FileHeader) (*model.File, error) {
	mimeType, err := validation.ValidateAvatar(header)
	if err != nil {
		return nil, err
	}

	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer func() { _ = file.Close() }()

	previous, err := s.Avatar(userID)
	if err != nil && !errors.Is(err, repository.ErrFileNotFound) {
		return nil, err
	}

	id := uuid.New().String()
	filename := id + avatarExtensions[mimeType]
	storagePath := path.Join("avatars", userID, filename)

	err = s.storage.Save(storagePath, file, mimeType)
	if err != nil {
		return nil, fmt.Errorf("failed to save file: %w", err)
	}

	record := &model.File{
		ID:           id,
		UserID:       userID,
		OwnerType:    model.FileOwnerUser,
		OwnerID:      userID,
		Type:         model.FileTypeAvatar,
		Filename:     filename,
		OriginalName: header.Filename,
		MimeType:     mimeType,
		Size:         header.Size,
		StoragePath:  storagePath,
		Public:       true,
		CreatedAt:    time.Now().UTC(),
	}

	err = s.fileRepo.Create(record)
	if err != nil {
		// If DB insert fails, try to cleanup the uploaded file
		delErr := s.storage.Delete(storagePath)
		if delErr != nil {
			slog.Error("failed to delete file from storage during cleanup", "error", delErr, "path", storagePath)
		}
		return nil, fmt.Errorf("failed to create file record: %w", err)
	}

	if previous != nil {
		err = s.Delete(previous)
		if err != nil {
			slog.Warn("failed to remove previous avatar", "error", err, "file_id", previous.ID)
		}
	}

	slog.Info("avatar uploaded", "user_id", userID, "size", header.Size, "mime_type", mimeType)
	return record, nil
}

// Avatar returns the user's current avatar, or ErrFileNotFound.
func (s *FileService) Avatar(userID string) (*model.File, error) {
	return s.fileRepo.Latest(model.FileOwnerUser, userID, model.FileTypeAvatar)
}

// URL returns a presigned URL for the file; empty when storage is disabled.
func (s *FileService) URL(file *model.File) string {
	if file == nil {
		return ""
	}
	return s.storage.PublicURL(file.StoragePath)
}

// Delete removes a file from storage (best effort) and the database.
func (s *FileService) Delete(file *model.File) error {
	delErr := s.storage.Delete(file.StoragePath)
	if delErr != nil {
		slog.Error("failed to delete file from storage", "error", delErr, "path", file.StoragePath)
	}

	err := s.fileRepo.Delete(file.ID)
	if err != nil {
		return fmt.Errorf("failed to delete file record: %w", err)
	}

	return nil
}

func (s *FileService) DeleteUserAvatar(userID string) error {
	file, err := s.Avatar(userID)
	if err != nil {
		if errors.Is(err, repository.ErrFileNotFound) {
			return nil
		}
		return err
	}

	return s.Delete(file)
}

// DeleteAllUserFilesFromStorage removes stored objects only; rows go with
// the account deletion.
func (s *FileService) DeleteAllUserFilesFromStorage(userID string) error {
	files, err := s.fileRepo.ByUser(userID)
	if err != nil {
		return fmt.Errorf("failed to get user files: %w", err)
	}

	for _, file := range files {
		err = s.storage.Delete(file.StoragePath)
		if err != nil {
			// Log but continue - physical file may already be gone
			slog.Warn("failed to delete file from storage", "storage_path", file.StoragePath, "error", err)
		}
	}

	return nil
}
