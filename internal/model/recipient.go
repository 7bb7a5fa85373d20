package model

// Recipient is a single mailing list member. Recipients live independently of
// campaigns and may be shared by any number of them.
type Recipient struct {
	ID      int    `db:"id" json:"id"`
	Email   string `db:"email" json:"email"`
	Name    string `db:"name" json:"name"`
	Comment string `db:"comment" json:"comment,omitempty"`
	OwnerID *int   `db:"owner_id" json:"owner_id,omitempty"`
}
