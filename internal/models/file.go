package models

// FileUploadRequest is the request contract for POST /files. Content is
// base64-encoded so binary payloads survive the JSON body.
type FileUploadRequest struct {
	Key         string `json:"key" binding:"required,min=1,max=1024"`
	Content     string `json:"content" binding:"required,base64"`
	ContentType string `json:"content_type" binding:"omitempty,max=255"`
}

// FileUploadResponse is the response contract for POST /files.
type FileUploadResponse struct {
	Key  string `json:"key"`
	Size int    `json:"size"`
}

// FileURLResponse carries a temporary access URL for a stored file.
type FileURLResponse struct {
	Key       string `json:"key"`
	URL       string `json:"url"`
	ExpiresIn int    `json:"expires_in"`
}

// WelcomeEmailRequest is the request contract for POST /emails/welcome.
type WelcomeEmailRequest struct {
	Recipient string `json:"recipient" binding:"required,email"`
	Name      string `json:"name" binding:"required,min=1,max=100"`
}

// WelcomeEmailResponse reports the SES message id of a sent email.
type WelcomeEmailResponse struct {
	MessageID string `json:"message_id"`
	Recipient string `json:"recipient"`
}
