package validation

import (
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"policydash/internal/shared/testutil"
	"policydash/pkg/contracts/domain"
)

func TestFileValidator_ValidateName(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		wantErr  error
	}{
		{"plain csv", "policies.csv", nil},
		{"nested workbook", "exports/2024/policies.xlsx", nil},
		{"tilde in middle", "q1~$policies.xlsx", nil},
		{"lock file", "~$policies.xlsx", ErrTemporaryFile},
		{"nested lock file", "shared/~$policies.xls", ErrTemporaryFile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := testutil.NewTestLogger(t)
			err := NewFileValidator(logger).ValidateName(tt.filename)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestFileValidator_ValidateContent(t *testing.T) {
	xlsx := "PK\x03\x04\x14\x00rest of archive"
	xls := "\xD0\xCF\x11\xE0\xA1\xB1\x1A\xE1compound document"
	binary := "Category,Premium\nLife,1\x00\x00\n"

	tests := []struct {
		name    string
		format  domain.IngestFormat
		data    string
		wantErr error
	}{
		{"csv text", domain.IngestFormatCSV, "Category,Commissionable Premium\nLife,100\n", nil},
		{"xlsx archive", domain.IngestFormatXLSX, xlsx, nil},
		{"xls compound document", domain.IngestFormatXLS, xls, nil},
		{"empty", domain.IngestFormatCSV, "", ErrEmptyUpload},
		{"xlsx without archive", domain.IngestFormatXLSX, "Category,Premium\n", ErrSignatureMismatch},
		{"xls given xlsx bytes", domain.IngestFormatXLS, xlsx, ErrSignatureMismatch},
		{"workbook as csv", domain.IngestFormatCSV, xlsx, ErrSignatureMismatch},
		{"legacy workbook as csv", domain.IngestFormatCSV, xls, ErrSignatureMismatch},
		{"binary csv", domain.IngestFormatCSV, binary, ErrBinaryCSV},
		{"nul past sniff window", domain.IngestFormatCSV, strings.Repeat("a,b\n", 200) + "\x00", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, handler := testutil.NewTestLogger(t)
			err := NewFileValidator(logger).ValidateContent("upload", tt.format, []byte(tt.data))
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			if tt.wantErr != ErrEmptyUpload {
				testutil.AssertLogContains(t, handler, slog.LevelWarn, "Upload content rejected")
			}
		})
	}
}
