package models

// Payment is a recorded rent or fee transfer from a tenant. It is owned by the billing
// side of the dashboard and only ever read here.
type Payment struct {
	ID            string    `bson:"_id" json:"id"`
	UserID        string    `bson:"user_id" json:"user_id"`
	TenantID      string    `bson:"tenant_id" json:"tenant_id"`
	Amount        float64   `bson:"amount" json:"amount"`
	PaymentMethod string    `bson:"payment_method" json:"payment_method"`
	PaymentDate   string    `bson:"payment_date" json:"payment_date"` // YYYY-MM-DD
	Tenant        *Tenant   `bson:"tenant,omitempty" json:"tenant,omitempty"`
	Property      *Property `bson:"property,omitempty" json:"property,omitempty"`
}

// TenantEmail returns the joined tenant's email, or "" when the tenant has none.
func (p *Payment) TenantEmail() string {
	if p == nil || p.Tenant == nil {
		return ""
	}
	return p.Tenant.Email
}
