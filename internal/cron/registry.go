package cron

import (
	"context"
	"fmt"
	"slices"

	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/outbox"
)

// Job is one unit of scheduled work. Every job runs once per cycle while the
// worker holds the distributed lock.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Registry keeps jobs in registration order, which is also run order.
type Registry struct {
	jobs []Job
}

// NewRegistry skips nil jobs and rejects a repeated name.
func NewRegistry(jobs ...Job) (*Registry, error) {
	r := &Registry{}
	for _, job := range jobs {
		if err := r.Register(job); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) Register(job Job) error {
	if job == nil {
		return nil
	}
	if slices.Contains(r.Names(), job.Name()) {
		return fmt.Errorf("cron job %q registered twice", job.Name())
	}
	r.jobs = append(r.jobs, job)
	return nil
}

// Jobs returns a copy so callers cannot reorder the registry.
func (r *Registry) Jobs() []Job {
	return slices.Clone(r.jobs)
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.jobs))
	for _, job := range r.jobs {
		names = append(names, job.Name())
	}
	return names
}
