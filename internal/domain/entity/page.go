package entity

type Screenshot struct {
	Data   []byte
	Format string
	Width  int
	Height int
}

// Control is an interactive element found on a page, reported when the
// configured upload control cannot be located.
type Control struct {
	Type     string `json:"type"`
	Selector string `json:"selector"`
	Text     string `json:"text,omitempty"`
	Accept   string `json:"accept,omitempty"`
	Visible  bool   `json:"visible"`
}
