package service

import (
	"context"
	"errors"
	"strings"

	"github.com/amankwa/attendance-services/internal/storesvc/models"
)

var ErrStudentFieldsRequired = errors.New("index_no and full_name required")

type StudentStore interface {
	List(ctx context.Context, search string) ([]models.Student, error)
	GetByID(ctx context.Context, id int64) (*models.Student, error)
	Create(ctx context.Context, indexNo, fullName string) (*models.Student, error)
}

type StudentService struct {
	students StudentStore
}

func NewStudentService(students StudentStore) *StudentService {
	return &StudentService{students: students}
}

func (s *StudentService) List(ctx context.Context, search string) ([]models.Student, error) {
	return s.students.List(ctx, strings.TrimSpace(search))
}

func (s *StudentService) Create(ctx context.Context, indexNo, fullName string) (*models.Student, error) {
	indexNo = strings.TrimSpace(indexNo)
	fullName = strings.TrimSpace(fullName)
	if indexNo == "" || fullName == "" {
		return nil, ErrStudentFieldsRequired
	}

	return s.students.Create(ctx, indexNo, fullName)
}
