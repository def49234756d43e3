package model

// Link is a stored short link. Link is the token and the primary key.
type Link struct {
	Link     string `json:"link"`
	Target   string `json:"target"`
	Password string `json:"-"`
}

// LinkRecord is a single journal entry of the file storage.
type LinkRecord struct {
	Op       string `json:"op"`
	Link     string `json:"link"`
	NewLink  string `json:"new_link,omitempty"`
	Target   string `json:"target,omitempty"`
	Password string `json:"password,omitempty"`
}
