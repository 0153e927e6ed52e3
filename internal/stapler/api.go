package stapler

// Request and response bodies for the JSON API.

// IssueUploadsRequest asks for one upload credential per file name.
type IssueUploadsRequest struct {
	FileNames []string `json:"fileNames"`
}

// PostDetails carries the presigned POST target URL and the form fields the
// client must submit along with the file, exactly as issued.
type PostDetails struct {
	URL    string            `json:"url"`
	Fields map[string]string `json:"fields"`
}

// UploadEntry is the per-file result of credential issuance.
type UploadEntry struct {
	OriginalFileName string      `json:"originalFileName"`
	Key              string      `json:"key"`
	PostDetails      PostDetails `json:"post_details"`
}

// IssueUploadsResponse lists one entry per requested file, in request order.
type IssueUploadsResponse struct {
	Uploads []UploadEntry `json:"uploads"`
}

// MergeRequest lists the source object keys to concatenate. The order of the
// keys determines the page order of the output.
type MergeRequest struct {
	FileKeys []string `json:"fileKeys"`
}

// MergeResponse reports a completed merge and where to download the result.
type MergeResponse struct {
	Message     string `json:"message"`
	DownloadURL string `json:"downloadUrl"`
}

// ErrorResponse is the uniform error envelope for all failed requests.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse reports service health.
type HealthResponse struct {
	Status string `json:"status"`
}
