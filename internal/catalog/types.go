package catalog

// Wire formats for the catalog's REST endpoints. Attributes the server may
// omit (rating, release, uploader) decode to zero values instead of
// failing the whole response.

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
	User  struct {
		Level            string `json:"level"`
		AllowedDownloads int    `json:"allowed_downloads"`
	} `json:"user"`
}

type searchResponse struct {
	Data []struct {
		Attributes searchAttributes `json:"attributes"`
	} `json:"data"`
}

type searchAttributes struct {
	Language      string  `json:"language"`
	Ratings       float64 `json:"ratings"`
	DownloadCount int     `json:"download_count"`
	Release       string  `json:"release"`
	Uploader      struct {
		Name string `json:"name"`
	} `json:"uploader"`
	Files []struct {
		FileID int64 `json:"file_id"`
	} `json:"files"`
}

func (a searchAttributes) primaryFileID() int64 {
	if len(a.Files) == 0 {
		return 0
	}
	return a.Files[0].FileID
}

type downloadRequest struct {
	FileID int64 `json:"file_id"`
}

type downloadResponse struct {
	Link string `json:"link"`
	// Remaining is a pointer so an absent field leaves the advisory quota
	// counter untouched.
	Remaining *int `json:"remaining"`
}
