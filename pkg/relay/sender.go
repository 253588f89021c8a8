package relay

import "SupportChat/models"

type senderKind int

const (
	kindCustomer senderKind = iota + 1
	kindEmployee
)

// Sender identifies who is sending. Build one with Customer or Employee;
// the zero value is rejected.
type Sender struct {
	kind       senderKind
	employeeID string
	companyID  string
	isAdmin    bool
}

// Customer is the conversation's own customer. Its identity is the
// conversation's customer, so it carries none.
func Customer() Sender {
	return Sender{kind: kindCustomer}
}

// Employee is an authenticated employee scoped to companyID. isAdmin comes
// from the access-control layer.
func Employee(employeeID, companyID string, isAdmin bool) Sender {
	return Sender{kind: kindEmployee, employeeID: employeeID, companyID: companyID, isAdmin: isAdmin}
}

func (s Sender) IsCustomer() bool { return s.kind == kindCustomer }
func (s Sender) IsEmployee() bool { return s.kind == kindEmployee }

// senderType is the persisted senderType value.
func (s Sender) senderType() string {
	if s.kind == kindEmployee {
		return models.SenderEmployee
	}
	return models.SenderCustomer
}

func (s Sender) senderID() *string {
	if s.kind != kindEmployee {
		return nil
	}
	id := s.employeeID
	return &id
}
