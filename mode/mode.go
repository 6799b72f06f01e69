package mode

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ID identifies a comparison mode.
type ID string

// Category groups modes for listing and menus.
type Category string

// Mode categories.
const (
	CategoryDifference Category = "difference"
	CategoryPerceptual Category = "perceptual"
	CategoryStructural Category = "structural"
	CategoryExposure   Category = "exposure"
	CategoryLayout     Category = "layout"
	CategoryInspection Category = "inspection"
	CategoryTemporal   Category = "temporal"
	CategoryChannel    Category = "channel"
	CategoryDebug      Category = "debug"
	CategoryCustom     Category = "custom"
)

// Record is one catalog entry. Records are values; modifying a returned
// Record does not affect the catalog.
type Record struct {
	ID       ID
	Category Category
	Name     string

	// Fragment is the WGSL body defining fn compare.
	Fragment string
}

// Errors returned by Validate.
var (
	ErrEmptyID          = errors.New("mode: empty mode id")
	ErrInvalidID        = errors.New("mode: id may only contain letters, digits, '_', '-' and '.'")
	ErrDuplicateID      = errors.New("mode: id collides with a built-in mode")
	ErrMissingCompare   = errors.New("mode: fragment body does not define fn compare")
	ErrReservedFunction = errors.New("mode: fragment body redefines an entry point")
)

var (
	validID    = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)
	compareFn  = regexp.MustCompile(`\bfn\s+compare\s*\(`)
	entryPoint = regexp.MustCompile(`\bfn\s+(vs_main|fs_main)\s*\(`)
)

// Custom builds a record for a user-authored body. The result still has to
// pass Validate before it is compiled.
func Custom(id ID, name, fragment string) Record {
	if name == "" {
		name = string(id)
	}
	return Record{ID: id, Category: CategoryCustom, Name: name, Fragment: fragment}
}

// Validate checks that a custom record honors the uniform contract well
// enough to be joined with the shared stage. It does not compile anything.
func Validate(rec Record) error {
	if strings.TrimSpace(string(rec.ID)) == "" {
		return ErrEmptyID
	}
	if !validID.MatchString(string(rec.ID)) {
		return fmt.Errorf("%w: %q", ErrInvalidID, rec.ID)
	}
	if _, ok := Lookup(rec.ID); ok {
		return fmt.Errorf("%w: %q", ErrDuplicateID, rec.ID)
	}
	if !compareFn.MatchString(rec.Fragment) {
		return ErrMissingCompare
	}
	if m := entryPoint.FindStringSubmatch(rec.Fragment); m != nil {
		return fmt.Errorf("%w: %s", ErrReservedFunction, m[1])
	}
	return nil
}
