package types

// MashupRequest is the body of POST /api/mashups.
// Count and Duration carry the same floors the form UI enforces: at
// least 10 sources and at least a 20 second excerpt each.
type MashupRequest struct {
	Query    string `json:"query" binding:"required"`
	Count    int    `json:"count" binding:"required,min=10,max=50"`
	Duration int    `json:"duration" binding:"required,min=20,max=120"`
	Email    string `json:"email" binding:"required,email"`
}

// Video is one resolved search result: a watchable URL plus its title.
type Video struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}
