package model

// Role identifies which account store a record belongs to. A record's role is
// positional (the table that holds it); the buyer table additionally carries a
// role marker column because legacy imports left seller-tagged rows in it.
type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
	RoleAdmin  Role = "admin"
)

func (r Role) String() string { return string(r) }
