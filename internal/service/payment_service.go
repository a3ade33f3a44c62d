package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/appdev-aems/portal-api/internal/client"
	"github.com/appdev-aems/portal-api/internal/models"
	appErrors "github.com/appdev-aems/portal-api/pkg/errors"
)

type paymentRegistrarClient interface {
	PaymentsByStudent(ctx context.Context, studentID string) ([]models.Payment, error)
	CreatePayment(ctx context.Context, in client.PaymentInput) (models.Payment, error)
	UpdatePayment(ctx context.Context, id string, in client.PaymentInput) (models.Payment, error)
	DeletePayment(ctx context.Context, id string) error
}

// PaymentRequest is the validated create/update payload.
type PaymentRequest struct {
	StudentID    int64   `json:"studentId" validate:"required,gt=0"`
	EnrollmentID int64   `json:"enrollmentId"`
	Amount       float64 `json:"amount" validate:"required,gt=0"`
	Method       string  `json:"method" validate:"required"`
	PaymentDate  string  `json:"paymentDate"`
}

// PaymentService is a thin validated proxy over the registrar's payment
// endpoints. Unlike the enrollment mirror, failures here propagate.
type PaymentService struct {
	registrar paymentRegistrarClient
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPaymentService constructs a PaymentService instance.
func NewPaymentService(registrar paymentRegistrarClient, validate *validator.Validate, logger *zap.Logger) *PaymentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &PaymentService{registrar: registrar, validator: validate, logger: logger}
}

// ListByStudent returns a student's payments.
func (s *PaymentService) ListByStudent(ctx context.Context, studentID string) ([]models.Payment, error) {
	if studentID == "" {
		return nil, appErrors.ErrInvalidUserID
	}
	return s.registrar.PaymentsByStudent(ctx, studentID)
}

// Create records a payment.
func (s *PaymentService) Create(ctx context.Context, req PaymentRequest) (models.Payment, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.Payment{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}
	return s.registrar.CreatePayment(ctx, toPaymentInput(req))
}

// Update replaces a payment record.
func (s *PaymentService) Update(ctx context.Context, id string, req PaymentRequest) (models.Payment, error) {
	if id == "" {
		return models.Payment{}, appErrors.Clone(appErrors.ErrValidation, "payment id is required")
	}
	if err := s.validator.Struct(req); err != nil {
		return models.Payment{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}
	return s.registrar.UpdatePayment(ctx, id, toPaymentInput(req))
}

// Delete removes a payment record.
func (s *PaymentService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return appErrors.Clone(appErrors.ErrValidation, "payment id is required")
	}
	return s.registrar.DeletePayment(ctx, id)
}

func toPaymentInput(req PaymentRequest) client.PaymentInput {
	return client.PaymentInput{
		StudentID:     req.StudentID,
		EnrollmentID:  req.EnrollmentID,
		Amount:        req.Amount,
		PaymentMethod: req.Method,
		PaymentDate:   req.PaymentDate,
	}
}
