package client

import (
	"context"
	"net/http"
	"strconv"

	"github.com/appdev-aems/portal-api/internal/models"
)

type paymentDTO struct {
	PaymentID     int64   `json:"paymentId"`
	StudentID     int64   `json:"studentId,omitempty"`
	EnrollmentID  int64   `json:"enrollmentId,omitempty"`
	Amount        float64 `json:"amount"`
	PaymentMethod string  `json:"paymentMethod,omitempty"`
	Status        string  `json:"status,omitempty"`
	PaymentDate   string  `json:"paymentDate,omitempty"`
}

// PaymentInput is the payload for payment create/update.
type PaymentInput struct {
	StudentID     int64   `json:"studentId,omitempty"`
	EnrollmentID  int64   `json:"enrollmentId,omitempty"`
	Amount        float64 `json:"amount"`
	PaymentMethod string  `json:"paymentMethod,omitempty"`
	Status        string  `json:"status,omitempty"`
	PaymentDate   string  `json:"paymentDate,omitempty"`
}

func (d paymentDTO) toModel() models.Payment {
	return models.Payment{
		ID:           strconv.FormatInt(d.PaymentID, 10),
		StudentID:    strconv.FormatInt(d.StudentID, 10),
		EnrollmentID: strconv.FormatInt(d.EnrollmentID, 10),
		Amount:       d.Amount,
		Method:       d.PaymentMethod,
		Status:       d.Status,
		PaymentDate:  d.PaymentDate,
	}
}

// PaymentsByStudent lists a student's payments.
func (c *Registrar) PaymentsByStudent(ctx context.Context, studentID string) ([]models.Payment, error) {
	var dtos []paymentDTO
	if err := c.do(ctx, http.MethodGet, "/payments/student/"+studentID, nil, nil, &dtos); err != nil {
		return nil, err
	}
	out := make([]models.Payment, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, d.toModel())
	}
	return out, nil
}

// CreatePayment records a payment.
func (c *Registrar) CreatePayment(ctx context.Context, in PaymentInput) (models.Payment, error) {
	var dto paymentDTO
	if err := c.do(ctx, http.MethodPost, "/payments", nil, in, &dto); err != nil {
		return models.Payment{}, err
	}
	return dto.toModel(), nil
}

// UpdatePayment replaces a payment record.
func (c *Registrar) UpdatePayment(ctx context.Context, id string, in PaymentInput) (models.Payment, error) {
	var dto paymentDTO
	if err := c.do(ctx, http.MethodPut, "/payments/"+id, nil, in, &dto); err != nil {
		return models.Payment{}, err
	}
	return dto.toModel(), nil
}

// DeletePayment removes a payment record.
func (c *Registrar) DeletePayment(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/payments/"+id, nil, nil, nil)
}
