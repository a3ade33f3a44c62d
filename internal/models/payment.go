package models

// Payment is a registrar-owned payment record; the portal proxies CRUD and
// surfaces failures to the caller.
type Payment struct {
	ID           string  `json:"paymentId"`
	StudentID    string  `json:"studentId"`
	EnrollmentID string  `json:"enrollmentId,omitempty"`
	Amount       float64 `json:"amount"`
	Method       string  `json:"method,omitempty"`
	Status       string  `json:"status,omitempty"`
	PaymentDate  string  `json:"paymentDate,omitempty"`
}
