package entity

// UploadedFile is a user-selected document held between selection and upload.
type UploadedFile struct {
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	MIMEType string `json:"mime_type"`
	Data     []byte `json:"-"`
	Path     string `json:"path,omitempty"`  // set when loaded from disk
	Pages    int    `json:"pages,omitempty"` // 0 when unknown
}
