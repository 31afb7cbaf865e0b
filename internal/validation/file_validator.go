package validation

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"policydash/pkg/contracts/domain"
)

// Upload rejection reasons.
var (
	ErrEmptyUpload       = errors.New("file is empty")
	ErrTemporaryFile     = errors.New("file is an editor lock file")
	ErrSignatureMismatch = errors.New("file content does not match its format")
	ErrBinaryCSV         = errors.New("file is binary, not delimited text")
)

var (
	zipSignature = []byte("PK\x03\x04")
	oleSignature = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

// sniffLen is how much of a CSV upload is scanned for binary content.
const sniffLen = 512

// FileValidator checks uploaded files before they reach the parser.
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger,
	}
}

// ValidateName rejects names that cannot be a dataset, such as the "~$"
// lock files spreadsheet editors leave next to open workbooks.
func (v *FileValidator) ValidateName(filename string) error {
	base := filepath.Base(filename)
	if strings.HasPrefix(base, "~$") {
		v.logger.Warn("Rejecting temporary Excel file",
			slog.String("file", filename))
		return fmt.Errorf("%w: %s", ErrTemporaryFile, base)
	}
	return nil
}

// ValidateContent checks that data looks like format. Workbooks must carry
// their container signature: XLSX is a zip archive and XLS an OLE compound
// document. CSV must be text, so either signature or a NUL byte in the
// first block rejects it.
func (v *FileValidator) ValidateContent(filename string, format domain.IngestFormat, data []byte) error {
	if len(data) == 0 {
		return ErrEmptyUpload
	}

	var err error
	switch format {
	case domain.IngestFormatXLSX:
		if !bytes.HasPrefix(data, zipSignature) {
			err = fmt.Errorf("%w: expected an xlsx workbook", ErrSignatureMismatch)
		}
	case domain.IngestFormatXLS:
		if !bytes.HasPrefix(data, oleSignature) {
			err = fmt.Errorf("%w: expected an xls workbook", ErrSignatureMismatch)
		}
	case domain.IngestFormatCSV:
		switch {
		case bytes.HasPrefix(data, zipSignature), bytes.HasPrefix(data, oleSignature):
			err = fmt.Errorf("%w: workbook uploaded as csv", ErrSignatureMismatch)
		case bytes.IndexByte(data[:min(len(data), sniffLen)], 0) >= 0:
			err = ErrBinaryCSV
		}
	}

	if err != nil {
		v.logger.Warn("Upload content rejected",
			slog.String("file", filename),
			slog.String("format", string(format)),
			slog.String("error", err.Error()))
		return err
	}

	v.logger.Debug("Upload content validated",
		slog.String("file", filename),
		slog.String("format", string(format)),
		slog.Int("size", len(data)))
	return nil
}
