package util

const (
	DateFormat = "2006-01-02"
	TimeFormat = "2006-01-02 15:04:05"
)

const (
	StorageLocal = "local"
	StorageMinio = "minio"
)

const (
	MimePDF      = "application/pdf"
	MimeCalendar = "text/calendar"
)
