package models

// Tenant model
type Tenant struct {
	ID         string `bson:"_id" json:"id"`
	FirstName  string `bson:"first_name" json:"first_name"`
	LastName   string `bson:"last_name" json:"last_name"`
	Email      string `bson:"email,omitempty" json:"email,omitempty"`
	UnitNumber string `bson:"unit_number" json:"unit_number"`
	PropertyID string `bson:"property_id" json:"property_id"`
}

// Property represents a rental property a tenant lives in
type Property struct {
	ID      string `bson:"_id" json:"id"`
	Name    string `bson:"name" json:"name"`
	Address string `bson:"address" json:"address"`
}
