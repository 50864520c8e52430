package dto

// AttachDocumentRequest names the file attached to a log row.
type AttachDocumentRequest struct {
	Name string `json:"name"`
}
