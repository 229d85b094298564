package referenceframe

import "github.com/pkg/errors"

// ErrNoModelInformation is returned when a robot description carries no links.
var ErrNoModelInformation = errors.New("no model information")

// NewDuplicateLinkError returns an error for a link name that appears more than once.
func NewDuplicateLinkError(name string) error {
	return errors.Errorf("link %q is defined more than once", name)
}

// NewParentLinkNotFoundError returns an error for a link whose parent is not part of the tree.
func NewParentLinkNotFoundError(child, parent string) error {
	return errors.Errorf("parent %q of link %q not found", parent, child)
}

// NewLinkNotFoundError returns an error for a lookup of an unknown link.
func NewLinkNotFoundError(name string) error {
	return errors.Errorf("link %q not found", name)
}
