package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

const (
	RoleStudent    = "student"
	RoleTeacher    = "teacher"
	RoleSuperAdmin = "super-admin"
)

// RoleRef is a role attached to a user. The backend sends either
// {id, name} objects or bare role names.
type RoleRef struct {
	ID   ID     `json:"id,omitempty"`
	Name string `json:"name"`
}

func (r *RoleRef) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*r = RoleRef{Name: name}
		return nil
	}
	f, err := decodeFields(data)
	if err != nil {
		return err
	}
	*r = RoleRef{ID: f.id("id"), Name: f.str("name")}
	return nil
}

// SchoolRef is a school attached to a user, either an object or a bare id.
type SchoolRef struct {
	ID   ID     `json:"id"`
	Name string `json:"name,omitempty"`
}

func (s *SchoolRef) UnmarshalJSON(data []byte) error {
	ref, err := decodeRef(data)
	if err != nil {
		return err
	}
	*s = SchoolRef(ref)
	return nil
}

// SubjectRef is a subject a user is enrolled in, either an object or a bare id.
type SubjectRef struct {
	ID   ID     `json:"id"`
	Name string `json:"name,omitempty"`
}

func (s *SubjectRef) UnmarshalJSON(data []byte) error {
	ref, err := decodeRef(data)
	if err != nil {
		return err
	}
	*s = SubjectRef(ref)
	return nil
}

type ref struct {
	ID   ID
	Name string
}

func decodeRef(data []byte) (ref, error) {
	var id ID
	if err := id.UnmarshalJSON(data); err == nil {
		return ref{ID: id}, nil
	}
	f, err := decodeFields(data)
	if err != nil {
		return ref{}, fmt.Errorf("invalid reference %s", string(data))
	}
	return ref{ID: f.id("id"), Name: f.str("name", "nama")}, nil
}

type UserProfile struct {
	ID       ID           `json:"id"`
	Name     string       `json:"name"`
	Email    string       `json:"email"`
	Roles    []RoleRef    `json:"roles"`
	Schools  []SchoolRef  `json:"schools"`
	Subjects []SubjectRef `json:"subjects,omitempty"`
}

func (u *UserProfile) UnmarshalJSON(data []byte) error {
	f, err := decodeFields(data)
	if err != nil {
		return err
	}

	*u = UserProfile{
		ID:    f.id("id"),
		Name:  f.str("name", "nama"),
		Email: f.str("email"),
	}

	for _, raw := range f.list("roles") {
		var r RoleRef
		if err := json.Unmarshal(raw, &r); err == nil && r.Name != "" {
			u.Roles = append(u.Roles, r)
		}
	}
	if len(u.Roles) == 0 {
		if obj, ok := f.object("role"); ok {
			if name := obj.str("name"); name != "" {
				u.Roles = append(u.Roles, RoleRef{ID: obj.id("id"), Name: name})
			}
		} else if name := f.str("role"); name != "" {
			u.Roles = append(u.Roles, RoleRef{Name: name})
		}
	}

	for _, raw := range f.list("schools") {
		var s SchoolRef
		if err := json.Unmarshal(raw, &s); err == nil && s.ID != 0 {
			u.Schools = append(u.Schools, s)
		}
	}
	if len(u.Schools) == 0 {
		if obj, ok := f.object("school"); ok {
			if id := obj.id("id"); id != 0 {
				u.Schools = append(u.Schools, SchoolRef{ID: id, Name: obj.str("name", "nama")})
			}
		} else if id := f.id("school_id"); id != 0 {
			u.Schools = append(u.Schools, SchoolRef{ID: id})
		}
	}

	for _, raw := range f.list("subjects") {
		var s SubjectRef
		if err := json.Unmarshal(raw, &s); err == nil && s.ID != 0 {
			u.Subjects = append(u.Subjects, s)
		}
	}
	return nil
}

// PrimaryRole is the first role of the user, lower-cased.
func (u *UserProfile) PrimaryRole() string {
	if len(u.Roles) == 0 {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(u.Roles[0].Name))
}

func (u *UserProfile) HasRole(names ...string) bool {
	for _, r := range u.Roles {
		for _, name := range names {
			if strings.EqualFold(r.Name, name) {
				return true
			}
		}
	}
	return false
}

func (u *UserProfile) SchoolID() ID {
	if len(u.Schools) == 0 {
		return 0
	}
	return u.Schools[0].ID
}

func (u *UserProfile) SchoolName() string {
	if len(u.Schools) == 0 {
		return ""
	}
	return u.Schools[0].Name
}

// SubjectIDs returns the enrolment filter. An empty result means no filter.
func (u *UserProfile) SubjectIDs() map[ID]struct{} {
	if len(u.Subjects) == 0 {
		return nil
	}
	ids := make(map[ID]struct{}, len(u.Subjects))
	for _, s := range u.Subjects {
		ids[s.ID] = struct{}{}
	}
	return ids
}

type Permission struct {
	ID   ID     `json:"id,omitempty"`
	Name string `json:"name"`
}

func (p *Permission) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*p = Permission{Name: name}
		return nil
	}
	f, err := decodeFields(data)
	if err != nil {
		return err
	}
	*p = Permission{ID: f.id("id"), Name: f.str("name")}
	return nil
}

// Resource is the object part of a permission named "<action> <resource>".
func (p Permission) Resource() string {
	name := strings.TrimSpace(p.Name)
	if i := strings.LastIndex(name, " "); i >= 0 {
		return name[i+1:]
	}
	return name
}

type Role struct {
	ID          ID           `json:"id"`
	Name        string       `json:"name"`
	Permissions []Permission `json:"permissions"`
}

type PermissionGroup struct {
	Resource    string       `json:"resource"`
	Permissions []Permission `json:"permissions"`
}

// GroupPermissions groups permissions by resource, ordered by resource name.
func GroupPermissions(perms []Permission) []PermissionGroup {
	byResource := make(map[string][]Permission)
	for _, p := range perms {
		res := p.Resource()
		byResource[res] = append(byResource[res], p)
	}

	groups := make([]PermissionGroup, 0, len(byResource))
	for res, ps := range byResource {
		groups = append(groups, PermissionGroup{Resource: res, Permissions: ps})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Resource < groups[j].Resource })
	return groups
}

type RoleCatalog struct {
	Roles       []Role            `json:"roles"`
	Permissions []PermissionGroup `json:"permissions"`
}

type RoleRequest struct {
	Name        string `json:"name" validate:"notblank,max=100"`
	Permissions []ID   `json:"permissions" validate:"dive,gt=0"`
}

type UserRequest struct {
	Name     string   `json:"name" validate:"notblank,max=255"`
	Email    string   `json:"email" validate:"required,email"`
	Password string   `json:"password,omitempty" validate:"omitempty,min=8"`
	Roles    []string `json:"roles,omitempty" validate:"dive,notblank"`

	PasswordConfirmation string `json:"password_confirmation,omitempty" validate:"omitempty,eqfield=Password"`
}

type AssignSchoolsRequest struct {
	SchoolIDs []ID `json:"school_ids" validate:"required,dive,gt=0"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UserFilter struct {
	Role   string
	Search string
}

// Matches reports whether the user passes the role and free-text filter.
func (f UserFilter) Matches(u *UserProfile) bool {
	if f.Role != "" && !u.HasRole(f.Role) {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		return strings.Contains(strings.ToLower(u.Name), q) ||
			strings.Contains(strings.ToLower(u.Email), q)
	}
	return true
}
