package service

import (
	"bytes"
	"fmt"
	"path/filepath"
	"resume_optimizer_backend/internal/util"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

// ExtractService 从上传的简历文件中提取纯文本。
// 纯转换，无副作用；超长文本的截断发生在入库边界，这里不丢信息。
type ExtractService struct{}

func NewExtractService() *ExtractService {
	return &ExtractService{}
}

// ExtractText 按文件名后缀分发。解析失败返回 util.ErrExtraction，
// 上层据此终止整轮分析。
func (s *ExtractService) ExtractText(filename string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty file", util.ErrExtraction)
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return s.extractPDF(data)
	case ".docx":
		return s.extractDocx(data)
	case ".txt":
		return string(data), nil
	default:
		return "", fmt.Errorf("%w: unsupported file type %q", util.ErrExtraction, filepath.Ext(filename))
	}
}

func (s *ExtractService) extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", util.ErrExtraction, err)
	}

	var sb strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

func (s *ExtractService) extractDocx(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", util.ErrExtraction, err)
	}
	defer doc.Close()

	return doc.Editable().GetContent(), nil
}
