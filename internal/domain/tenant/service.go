package tenant

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/slog"
)

const (
	MinSlugLen = 2
	MaxSlugLen = 100
	MaxNameLen = 200
)

var slugPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

type Servicer interface {
	Create(ctx context.Context, slug, name string) (*Tenant, error)
	List(ctx context.Context) ([]Tenant, error)
	Suspend(ctx context.Context, id string) (*Tenant, error)
	Activate(ctx context.Context, id string) (*Tenant, error)
}

type Provisioner interface {
	Provision(ctx context.Context, t Tenant) error
}

type Service struct {
	dir         Directory
	provisioner Provisioner
	log         *slog.Logger
}

func NewService(dir Directory, provisioner Provisioner, log *slog.Logger) *Service {
	return &Service{
		dir:         dir,
		provisioner: provisioner,
		log:         log,
	}
}

// ValidateSlug проверяет slug: 2-100 символов, строчные латинские буквы, цифры и дефис.
func ValidateSlug(slug string) error {
	if len(slug) < MinSlugLen || len(slug) > MaxSlugLen {
		return fmt.Errorf("%w: must be %d-%d characters", ErrInvalidSlug, MinSlugLen, MaxSlugLen)
	}
	if !slugPattern.MatchString(slug) {
		return fmt.Errorf("%w: only lowercase letters, digits and hyphens", ErrInvalidSlug)
	}
	return nil
}

// Create регистрирует тенанта и сразу готовит его раздел данных.
func (s *Service) Create(ctx context.Context, slug, name string) (*Tenant, error) {
	slug = strings.TrimSpace(slug)
	name = strings.TrimSpace(name)

	if err := ValidateSlug(slug); err != nil {
		return nil, err
	}
	if name == "" || len(name) > MaxNameLen {
		return nil, fmt.Errorf("%w: must be 1-%d characters", ErrInvalidName, MaxNameLen)
	}

	now := time.Now().UTC()
	t := &Tenant{
		ID:        uuid.NewString(),
		Slug:      slug,
		Name:      name,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.dir.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("create tenant: %w", err)
	}

	if err := s.provisioner.Provision(ctx, *t); err != nil {
		return nil, fmt.Errorf("provision tenant %s: %w", slug, err)
	}

	s.log.Info("tenant created", slog.String("tenant", slug), slog.String("id", t.ID))
	return t, nil
}

func (s *Service) List(ctx context.Context) ([]Tenant, error) {
	return s.dir.List(ctx)
}

func (s *Service) Suspend(ctx context.Context, id string) (*Tenant, error) {
	return s.setActive(ctx, id, false)
}

func (s *Service) Activate(ctx context.Context, id string) (*Tenant, error) {
	return s.setActive(ctx, id, true)
}

func (s *Service) setActive(ctx context.Context, id string, active bool) (*Tenant, error) {
	// CLI принимает и slug, и id
	if _, err := uuid.Parse(id); err != nil {
		t, err := s.dir.GetBySlug(ctx, id)
		if err != nil {
			return nil, err
		}
		id = t.ID
	}

	t, err := s.dir.SetActive(ctx, id, active)
	if err != nil {
		return nil, err
	}
	s.log.Info("tenant state changed", slog.String("tenant", t.Slug), slog.Bool("active", active))
	return t, nil
}
