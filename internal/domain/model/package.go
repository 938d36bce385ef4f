package model

import (
	"time"

	"ev-marketplace/internal/domain"
)

// PackageKind is a closed enum; business rules branch on the kind, never
// on package IDs.
type PackageKind string

const (
	PackageKindStandard PackageKind = "standard"
	PackageKindPriority PackageKind = "priority"
	PackageKindSpecial  PackageKind = "special"
)

type PackageStatus string

const (
	PackageStatusActive   PackageStatus = "active"
	PackageStatusInactive PackageStatus = "inactive"
)

// PostPackage is a purchasable duration/visibility tier. The catalog is
// immutable at runtime apart from activation flips.
type PostPackage struct {
	ID               string
	Kind             PackageKind
	Name             string
	BaseDurationDays int
	Price            int64 // VND
	Status           PackageStatus
	CreatedAt        time.Time
}

func NewPostPackage(id string, kind PackageKind, name string, baseDurationDays int, price int64) (*PostPackage, error) {
	if id == "" || name == "" || baseDurationDays <= 0 || price < 0 {
		return nil, domain.ErrInvalidArgument
	}
	switch kind {
	case PackageKindStandard, PackageKindPriority, PackageKindSpecial:
	default:
		return nil, domain.ErrInvalidArgument
	}
	return &PostPackage{
		ID:               id,
		Kind:             kind,
		Name:             name,
		BaseDurationDays: baseDurationDays,
		Price:            price,
		Status:           PackageStatusActive,
		CreatedAt:        time.Now(),
	}, nil
}

func (p *PostPackage) IsZero() bool   { return p == nil || p.ID == "" }
func (p *PostPackage) IsActive() bool { return p != nil && p.Status == PackageStatusActive }

// IsAddon reports whether the package is a visibility boost layered on
// top of a base listing term.
func (p *PostPackage) IsAddon() bool { return p.Kind != PackageKindStandard }

// PackageOption is a specific duration/price granularity of an addon
// package.
type PackageOption struct {
	ID           string
	PackageID    string
	DurationDays int
	Price        int64 // VND
	CreatedAt    time.Time
}

func NewPackageOption(id, packageID string, durationDays int, price int64) (*PackageOption, error) {
	if id == "" || packageID == "" || durationDays <= 0 || price < 0 {
		return nil, domain.ErrInvalidArgument
	}
	return &PackageOption{
		ID:           id,
		PackageID:    packageID,
		DurationDays: durationDays,
		Price:        price,
		CreatedAt:    time.Now(),
	}, nil
}
