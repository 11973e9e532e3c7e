package service

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"contacts-api/internal/domain"
	"contacts-api/internal/repository"
)

// AvatarService normaliza imagenes subidas y las asocia a la cuenta.
type AvatarService struct {
	logger    *zap.Logger
	users     repository.UserRepository
	avatarDir string
	tmpDir    string
}

const (
	avatarSize     = 250
	maxAvatarBytes = 2 << 20

	avatarURLPrefix = "/avatars/"
)

var (
	ErrAvatarMissing  = errors.New("avatar file missing")
	ErrAvatarNotImage = errors.New("avatar is not an image")
	ErrAvatarTooLarge = errors.New("avatar exceeds size limit")
)

func NewAvatarService(logger *zap.Logger, users repository.UserRepository, avatarDir, tmpDir string) (*AvatarService, error) {
	if err := os.MkdirAll(avatarDir, 0o755); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		return nil, err
	}
	return &AvatarService{
		logger:    logger,
		users:     users,
		avatarDir: avatarDir,
		tmpDir:    tmpDir,
	}, nil
}

// UpdateAvatar valida la subida, la redimensiona a un cuadrado fijo, la mueve
// del staging al directorio publico y actualiza avatar_url. El archivo previo
// se elimina con mejor esfuerzo; el staging nunca queda con residuos.
func (s *AvatarService) UpdateAvatar(ctx context.Context, user domain.User, fileHeader *multipart.FileHeader) (string, error) {
	if fileHeader == nil {
		return "", ErrAvatarMissing
	}
	if fileHeader.Size > maxAvatarBytes {
		return "", ErrAvatarTooLarge
	}
	contentType := fileHeader.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return "", ErrAvatarNotImage
	}

	ext := normalizeExt(filepath.Ext(fileHeader.Filename))
	tmpPath := filepath.Join(s.tmpDir, uuid.NewString()+ext)
	if err := s.stageUpload(fileHeader, tmpPath); err != nil {
		return "", err
	}
	defer s.removeFile(tmpPath)

	img, err := imaging.Open(tmpPath)
	if err != nil {
		return "", ErrAvatarNotImage
	}
	img = imaging.Fill(img, avatarSize, avatarSize, imaging.Center, imaging.Lanczos)

	fileName := user.ID + "_" + uuid.NewString() + ext
	finalPath := filepath.Join(s.avatarDir, fileName)
	if err := imaging.Save(img, finalPath); err != nil {
		// Un Save interrumpido puede dejar un archivo a medio escribir.
		s.removeFile(finalPath)
		return "", err
	}

	avatarURL := avatarURLPrefix + fileName
	if err := s.users.UpdateAvatarURL(ctx, user.ID, avatarURL); err != nil {
		s.removeFile(finalPath)
		return "", err
	}

	// El identicon por defecto es una URL externa; solo se borran archivos locales.
	if old := user.AvatarURL; strings.HasPrefix(old, avatarURLPrefix) && old != avatarURL {
		s.removeFile(filepath.Join(s.avatarDir, filepath.Base(old)))
	}
	return avatarURL, nil
}

func (s *AvatarService) stageUpload(fileHeader *multipart.FileHeader, tmpPath string) error {
	src, err := fileHeader.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(tmpPath)
	if err != nil {
		return err
	}
	_, copyErr := io.Copy(dst, io.LimitReader(src, maxAvatarBytes+1))
	closeErr := dst.Close()
	if copyErr != nil {
		s.removeFile(tmpPath)
		return copyErr
	}
	if closeErr != nil {
		s.removeFile(tmpPath)
		return closeErr
	}
	info, err := os.Stat(tmpPath)
	if err != nil {
		s.removeFile(tmpPath)
		return err
	}
	if info.Size() > maxAvatarBytes {
		s.removeFile(tmpPath)
		return ErrAvatarTooLarge
	}
	return nil
}

func (s *AvatarService) removeFile(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		if s.logger != nil {
			s.logger.Warn("remove avatar file failed", zap.Error(err), zap.String("path", path))
		}
	}
}

func normalizeExt(ext string) string {
	switch strings.ToLower(ext) {
	case ".jpg", ".jpeg", ".png", ".gif", ".tif", ".tiff", ".bmp":
		return strings.ToLower(ext)
	}
	return ".jpg"
}
