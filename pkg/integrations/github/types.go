package github

// contentResponse is the subset of the contents API reply the client reads.
type contentResponse struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	Size        int    `json:"size"`
	Encoding    string `json:"encoding"`
	DownloadURL string `json:"download_url"`
}

// Repository identifies a GitHub repository.
type Repository struct {
	Owner string
	Name  string
}

func (r Repository) String() string { return r.Owner + "/" + r.Name }
