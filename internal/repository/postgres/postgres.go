package postgres

import (
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/hospital-core/internal/repository"
)

type locationRepository struct {
	db *sqlx.DB
}

type unitRepository struct {
	db *sqlx.DB
}

type bookingRepository struct {
	db *sqlx.DB
}

type policyRepository struct {
	db *sqlx.DB
}

type auditRepository struct {
	db *sqlx.DB
}

type outboxRepository struct {
	db *sqlx.DB
}

func NewLocationRepository(db *sqlx.DB) repository.LocationRepository {
	return &locationRepository{db: db}
}

func NewUnitRepository(db *sqlx.DB) repository.UnitRepository {
	return &unitRepository{db: db}
}

func NewBookingRepository(db *sqlx.DB) repository.BookingRepository {
	return &bookingRepository{db: db}
}

func NewPolicyRepository(db *sqlx.DB) repository.PolicyRepository {
	return &policyRepository{db: db}
}

func NewAuditRepository(db *sqlx.DB) repository.AuditRepository {
	return &auditRepository{db: db}
}

func NewOutboxRepository(db *sqlx.DB) repository.OutboxRepository {
	return &outboxRepository{db: db}
}
