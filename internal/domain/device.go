package domain

// Device is a renderer discovered on the local network.
type Device struct {
	Name    string
	Model   string
	Address string
}
