package validation

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
)

var ErrFileTooLarge = invalid("file too large: maximum size is 5 MB")

const MaxAvatarSize = 5 << 20

var avatarTypes = map[string][]string{
	"image/jpeg": {".jpg", ".jpeg"},
	"image/png":  {".png"},
	"image/webp": {".webp"},
}

// ValidateAvatar checks size, sniffed content type (magic numbers, not the
// client header) and that the extension agrees with it. It returns the
// detected MIME type and leaves the file rewound.
func ValidateAvatar(header *multipart.FileHeader) (string, error) {
	if header.Size > MaxAvatarSize {
		return "", ErrFileTooLarge
	}

	file, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return DetectImage(file, header.Filename)
}

// DetectImage sniffs the first 512 bytes of r.
func DetectImage(r io.Reader, filename string) (string, error) {
	buffer := make([]byte, 512)
	n, err := io.ReadFull(r, buffer)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	if seeker, ok := r.(io.Seeker); ok {
		_, err = seeker.Seek(0, io.SeekStart)
		if err != nil {
			return "", fmt.Errorf("failed to reset file pointer: %w", err)
		}
	}

	detected := http.DetectContentType(buffer[:n])
	exts, ok := avatarTypes[detected]
	if !ok {
		return "", invalidf("invalid file type (detected: %s)", detected)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	for _, allowed := range exts {
		if ext == allowed {
			return detected, nil
		}
	}
	return "", invalidf("invalid file extension %q for %s", ext, detected)
}
