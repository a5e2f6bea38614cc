package form

// Notice is the informational modal with a single acknowledge button.
type Notice struct {
	Open  bool   `json:"open"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Show opens the notice. An already open notice is overwritten, not queued.
func (n *Notice) Show(title, body string) {
	n.Title = title
	n.Body = body
	n.Open = true
}

func (n *Notice) Acknowledge() {
	n.Open = false
}

// Dialog is the confirmation modal with OK and close buttons.
type Dialog struct {
	Open  bool   `json:"open"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

func (d *Dialog) Show(title, body string) {
	d.Title = title
	d.Body = body
	d.Open = true
}

func (d *Dialog) OK() {
	d.Open = false
}

func (d *Dialog) Close() {
	d.Open = false
}
