package service

import (
	"resume_optimizer_backend/internal/util"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractTextPlainText(t *testing.T) {
	svc := NewExtractService()

	text, err := svc.ExtractText("resume.txt", []byte("Skills: Python\nWorked at Acme"))

	require.NoError(t, err)
	assert.Equal(t, "Skills: Python\nWorked at Acme", text)
}

func TestExtractTextUppercaseExtension(t *testing.T) {
	svc := NewExtractService()

	text, err := svc.ExtractText("RESUME.TXT", []byte("hello"))

	require.NoError(t, err)
	assert.Equal(t, "hello", text)
}

func TestExtractTextFailures(t *testing.T) {
	svc := NewExtractService()

	tests := []struct {
		name     string
		filename string
		data     []byte
	}{
		{"empty file", "resume.txt", nil},
		{"unsupported extension", "resume.exe", []byte("data")},
		{"no extension", "resume", []byte("data")},
		{"corrupt pdf", "resume.pdf", []byte("this is not a pdf")},
		{"corrupt docx", "resume.docx", []byte("this is not a zip archive")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ExtractText(tt.filename, tt.data)
			assert.ErrorIs(t, err, util.ErrExtraction)
		})
	}
}
