package model

// Category groups tasks by area (study, work, home, etc.).
type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}
