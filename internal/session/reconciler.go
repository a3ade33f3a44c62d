package session

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/appdev-aems/portal-api/internal/client"
	"github.com/appdev-aems/portal-api/internal/models"
	"github.com/appdev-aems/portal-api/pkg/jobs"
)

// EnrollmentMirror is the payload for enrollment reconciliation jobs.
type EnrollmentMirror struct {
	StudentID string
	CourseID  string
	Semester  string
}

// ProfileMirror is the payload for profile reconciliation jobs.
type ProfileMirror struct {
	StudentID string
	Update    client.StudentUpdate
}

// MirrorClient is the slice of the registrar client the reconciler needs.
type MirrorClient interface {
	ListEnrollments(ctx context.Context) ([]models.Enrollment, error)
	CreateEnrollment(ctx context.Context, in client.EnrollmentInput) (models.Enrollment, error)
	UpdateEnrollment(ctx context.Context, id string, in client.EnrollmentInput) (models.Enrollment, error)
	UpdateStudent(ctx context.Context, id string, in client.StudentUpdate) error
}

// Reconciler replays local mutations against the registrar. It runs as
// the jobs queue handler; errors returned here trigger the queue's
// retry, and exhaustion is logged by the queue, never surfaced.
type Reconciler struct {
	registrar MirrorClient
	logger    *zap.Logger
}

// NewReconciler builds a queue handler around the registrar client.
func NewReconciler(registrar MirrorClient, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{registrar: registrar, logger: logger}
}

// Handle processes one reconciliation job.
func (r *Reconciler) Handle(ctx context.Context, job jobs.Job) error {
	switch job.Type {
	case JobEnrollCreate:
		payload, ok := job.Payload.(EnrollmentMirror)
		if !ok {
			r.logger.Error("dropping job with unexpected payload", zap.String("type", job.Type))
			return nil
		}
		return r.createEnrollment(ctx, payload)
	case JobEnrollDrop:
		payload, ok := job.Payload.(EnrollmentMirror)
		if !ok {
			r.logger.Error("dropping job with unexpected payload", zap.String("type", job.Type))
			return nil
		}
		return r.dropEnrollment(ctx, payload)
	case JobProfileUpdate:
		payload, ok := job.Payload.(ProfileMirror)
		if !ok {
			r.logger.Error("dropping job with unexpected payload", zap.String("type", job.Type))
			return nil
		}
		return r.registrar.UpdateStudent(ctx, payload.StudentID, payload.Update)
	default:
		r.logger.Error("dropping job with unknown type", zap.String("type", job.Type))
		return nil
	}
}

func (r *Reconciler) createEnrollment(ctx context.Context, p EnrollmentMirror) error {
	studentID, courseID, err := mirrorIDs(p)
	if err != nil {
		r.logger.Error("dropping enrollment mirror with bad ids", zap.Error(err))
		return nil
	}
	_, err = r.registrar.CreateEnrollment(ctx, client.EnrollmentInput{
		StudentID:      studentID,
		CourseID:       courseID,
		Status:         string(models.EnrollmentStatusEnrolled),
		Semester:       p.Semester,
		EnrollmentDate: time.Now().UTC().Format("2006-01-02"),
	})
	return err
}

func (r *Reconciler) dropEnrollment(ctx context.Context, p EnrollmentMirror) error {
	studentID, courseID, err := mirrorIDs(p)
	if err != nil {
		r.logger.Error("dropping drop mirror with bad ids", zap.Error(err))
		return nil
	}
	all, err := r.registrar.ListEnrollments(ctx)
	if err != nil {
		return err
	}
	for _, e := range all {
		if e.StudentID != p.StudentID || e.CourseID != p.CourseID {
			continue
		}
		if e.Status == models.EnrollmentStatusDropped {
			return nil
		}
		_, err := r.registrar.UpdateEnrollment(ctx, e.ID, client.EnrollmentInput{
			StudentID: studentID,
			CourseID:  courseID,
			Status:    string(models.EnrollmentStatusDropped),
			Semester:  e.Semester,
		})
		return err
	}
	// No registrar-side record; the create mirror never landed. Nothing
	// to reconcile.
	return nil
}

func mirrorIDs(p EnrollmentMirror) (studentID, courseID int64, err error) {
	studentID, err = strconv.ParseInt(p.StudentID, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("student id %q: %w", p.StudentID, err)
	}
	courseID, err = strconv.ParseInt(p.CourseID, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("course id %q: %w", p.CourseID, err)
	}
	return studentID, courseID, nil
}
