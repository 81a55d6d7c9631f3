// Package components publishes, serves and deletes uploaded HTML components, and sweeps
// orphaned files.
package components

import (
	"context"
	"regexp"
	"strings"

	"toolbox_back/apierr"
	"toolbox_back/catalog"
)

// MaxPathNameLength matches the width of the path_name column.
const MaxPathNameLength = 128

var pathNamePattern = regexp.MustCompile(`^[A-Za-z0-9]+$`)

// reservedPathNames are single-segment GET routes registered ahead of the catch-all,
// so a component published under one of them could never be reached.
var reservedPathNames = map[string]struct{}{
	"api":     {},
	"upload":  {},
	"healthz": {},
}

// ValidPathName reports whether s is one or more ASCII letters or digits.
func ValidPathName(s string) bool {
	return pathNamePattern.MatchString(s)
}

// IsReserved is case-sensitive, like routing.
func IsReserved(s string) bool {
	_, ok := reservedPathNames[s]
	return ok
}

// StorageFileName derives the blob name for pathName: characters outside
// [A-Za-z0-9._-] are dropped, leading dots trimmed, and ".html" appended.
func StorageFileName(pathName string) string {
	var b strings.Builder
	for _, r := range pathName {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		}
	}
	name := strings.TrimLeft(b.String(), ".")
	if name == "" {
		name = "component"
	}
	return name + ".html"
}

// Registry answers path_name questions against the store.
type Registry struct {
	store *catalog.Store
}

func NewRegistry(store *catalog.Store) *Registry {
	return &Registry{store: store}
}

// IsUnique is an exact, case-sensitive match. It is advisory: the unique index
// on path_name is what finally settles concurrent publishes.
func (r *Registry) IsUnique(ctx context.Context, pathName string) (bool, error) {
	exists, err := r.store.PathNameExists(ctx, pathName)
	if err != nil {
		return false, err
	}
	return !exists, nil
}

var (
	errPathNameRequired = apierr.Validation("path_name_required", "please enter a path name")
	errInvalidPathName  = apierr.Validation("invalid_path_name", "path name may only contain letters and digits")
	errPathNameTooLong  = apierr.Validation("path_name_too_long", "path name is too long")
	errPathNameReserved = apierr.Conflict("path_name_reserved", "path name is reserved, please choose another")
	errPathNameTaken    = apierr.Conflict("path_name_taken", "path name already exists, please choose another")
)

// Check applies every path_name rule in order: presence, format, length, reserved
// names, then uniqueness. It returns an *apierr.Error for rule violations.
func (r *Registry) Check(ctx context.Context, pathName string) error {
	switch {
	case pathName == "":
		return errPathNameRequired
	case !ValidPathName(pathName):
		return errInvalidPathName
	case len(pathName) > MaxPathNameLength:
		return errPathNameTooLong
	case IsReserved(pathName):
		return errPathNameReserved
	}

	unique, err := r.IsUnique(ctx, pathName)
	if err != nil {
		return err
	}
	if !unique {
		return errPathNameTaken
	}
	return nil
}
