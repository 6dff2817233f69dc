package domain

// Transport provider that receives dispatch notifications.
type Partner struct {
	ID    string
	Name  string
	Email string
	Phone string
}
