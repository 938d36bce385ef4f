package usecase

import (
	"context"

	"ev-marketplace/internal/domain"
	"ev-marketplace/internal/domain/model"
	"ev-marketplace/internal/domain/ports/repository"
)

// PackageSelection is what a seller picks when paying for a listing: a
// standard package, an addon option, or both. An addon purchase always
// names a concrete option; the addon package ID is optional and only
// cross-checked against the option's parent.
type PackageSelection struct {
	StandardPackageID *string
	AddonPackageID    *string
	AddonOptionID     *string
}

func (s PackageSelection) empty() bool {
	return s.StandardPackageID == nil && s.AddonPackageID == nil && s.AddonOptionID == nil
}

// resolvedSelection holds the catalog rows behind a PackageSelection.
type resolvedSelection struct {
	standard *model.PostPackage
	addonPkg *model.PostPackage
	option   *model.PackageOption
}

func (r *resolvedSelection) total() int64 {
	var t int64
	if r.standard != nil {
		t += r.standard.Price
	}
	if r.option != nil {
		t += r.option.Price
	}
	return t
}

func (r *resolvedSelection) packageID() *string {
	if r.standard == nil {
		return nil
	}
	id := r.standard.ID
	return &id
}

func (r *resolvedSelection) optionID() *string {
	if r.option == nil {
		return nil
	}
	id := r.option.ID
	return &id
}

// resolveSelection loads and validates a package selection against the
// catalog. Rules enforced here:
//   - at least one of standard package / addon option must be chosen
//   - every referenced package must be active
//   - an addon option must belong to an addon (non-standard) package,
//     and to the named addon package when one is given
//   - when a standard package and an addon option are bought together,
//     the option's duration must be strictly shorter than the standard
//     package's base duration
func resolveSelection(
	ctx context.Context,
	tx repository.Tx,
	packages repository.PackageRepository,
	options repository.PackageOptionRepository,
	sel PackageSelection,
) (*resolvedSelection, error) {
	if sel.empty() || (sel.AddonPackageID != nil && sel.AddonOptionID == nil) {
		return nil, domain.ErrInvalidArgument
	}

	out := &resolvedSelection{}

	if sel.StandardPackageID != nil {
		pkg, err := packages.FindByID(ctx, tx, *sel.StandardPackageID)
		if err != nil {
			return nil, err
		}
		if pkg.Kind != model.PackageKindStandard {
			return nil, domain.ErrInvalidArgument
		}
		if !pkg.IsActive() {
			return nil, domain.ErrPackageInactive
		}
		out.standard = pkg
	}

	if sel.AddonOptionID != nil {
		opt, err := options.FindByID(ctx, tx, *sel.AddonOptionID)
		if err != nil {
			return nil, err
		}
		if sel.AddonPackageID != nil && opt.PackageID != *sel.AddonPackageID {
			return nil, domain.ErrInvalidArgument
		}
		parent, err := packages.FindByID(ctx, tx, opt.PackageID)
		if err != nil {
			return nil, err
		}
		if !parent.IsAddon() {
			return nil, domain.ErrInvalidArgument
		}
		if !parent.IsActive() {
			return nil, domain.ErrPackageInactive
		}
		out.addonPkg = parent
		out.option = opt
	}

	// A short-term boost cannot outlast the base term it rides on.
	if out.standard != nil && out.option != nil &&
		out.option.DurationDays >= out.standard.BaseDurationDays {
		return nil, domain.ErrIncompatibleDuration
	}

	return out, nil
}
