package util

const (
	DateFormat = "2006-01-02"
	TimeFormat = "2006-01-02 15:04:05"
)

const (
	StorageLocal = "local"
	StorageMinio = "minio"
)

// 简历上传相关常量
const (
	MimePDF         = "application/pdf"
	MimeDocx        = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimePlainText   = "text/plain"
	MimeOctetStream = "application/octet-stream"
)

var AllowedResumeExtensions = []string{".pdf", ".docx", ".txt"}
