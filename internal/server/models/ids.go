// Package models defines the records persisted by the server and the typed
// identifiers that travel between its layers.
package models

import "github.com/dmitrijs2005/filevault/internal/common"

// UserID identifies an account.
type UserID string

// FileID identifies a file record.
type FileID string

// ParentID is the parentId attribute of a file: either RootParent or the
// FileID of a folder owned by the same user.
type ParentID string

// Token is an opaque session token.
type Token string

// RootParent marks a file that sits at the top of its owner's tree.
const RootParent ParentID = common.RootParentID

// IsRoot reports whether p denotes the top level.
func (p ParentID) IsRoot() bool {
	return p == "" || p == RootParent
}

// FileID returns the folder id p refers to; ok is false for the root.
func (p ParentID) FileID() (FileID, bool) {
	if p.IsRoot() {
		return "", false
	}
	return FileID(p), true
}

// AsParent returns id in the form stored in a child's parentId.
func (id FileID) AsParent() ParentID {
	return ParentID(id)
}
