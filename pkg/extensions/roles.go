// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package extensions

// Role is a project membership role. Authorization decisions in the
// coding engine reduce to the capability predicates below rather than
// ad hoc string comparisons at call sites.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"

	// RoleNone means the user is not a member of the project.
	RoleNone Role = ""
)

// CanMutateTaxonomy reports whether the role may create, update, or
// delete codes.
func (r Role) CanMutateTaxonomy() bool {
	return r == RoleOwner || r == RoleEditor
}

// CanAnnotate reports whether the role may create annotations.
// Any project member may annotate.
func (r Role) CanAnnotate() bool {
	return r == RoleOwner || r == RoleEditor || r == RoleViewer
}

// IsMember reports whether the role represents project membership.
func (r Role) IsMember() bool {
	return r != RoleNone
}
