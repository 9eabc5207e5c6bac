package mapx

import (
	"fmt"
)

// DefaultRole is the role used when none is requested. Every schema has one.
const DefaultRole = "__default__"

// RoleMode selects how a role interprets its members.
type RoleMode int8

const (
	ModeWhitelist RoleMode = iota
	ModeBlacklist
)

func (m RoleMode) String() string {
	switch m {
	case ModeWhitelist:
		return "whitelist"
	case ModeBlacklist:
		return "blacklist"
	default:
		return "unknown"
	}
}

// ParseRoleMode converts "whitelist" or "blacklist" to a RoleMode.
func ParseRoleMode(s string) (RoleMode, error) {
	switch s {
	case "", "whitelist":
		return ModeWhitelist, nil
	case "blacklist":
		return ModeBlacklist, nil
	default:
		return ModeWhitelist, fmt.Errorf("%w: %w: unknown role mode '%s'", ErrDefinition, ErrMalformedRole, s)
	}
}

// Role selects a subset of a schema's field names.
type Role struct {
	name    string
	mode    RoleMode
	members []string
	set     map[string]struct{}
}

// NewRole creates a role with an explicit mode.
func NewRole(mode RoleMode, members ...string) Role {
	r := Role{
		mode:    mode,
		members: append([]string(nil), members...),
		set:     make(map[string]struct{}, len(members)),
	}
	for _, m := range members {
		r.set[m] = struct{}{}
	}
	return r
}

// Whitelist selects exactly the given fields.
func Whitelist(members ...string) Role {
	return NewRole(ModeWhitelist, members...)
}

// Blacklist selects every field except the given ones.
func Blacklist(members ...string) Role {
	return NewRole(ModeBlacklist, members...)
}

func (r Role) Name() string      { return r.name }
func (r Role) Mode() RoleMode    { return r.mode }
func (r Role) Members() []string { return append([]string(nil), r.members...) }

// Contains reports whether the role selects the named field.
func (r Role) Contains(name string) bool {
	_, ok := r.set[name]
	if r.mode == ModeBlacklist {
		return !ok
	}
	return ok
}

func (r Role) withName(name string) Role {
	r.name = name
	return r
}

// normalizeRole turns a role declaration into a Role. A plain list of names is
// an implicit whitelist.
func normalizeRole(name, schema string, decl any) (Role, error) {
	switch v := decl.(type) {
	case Role:
		return v.withName(name), nil
	case *Role:
		if v == nil {
			return Role{}, NewMalformedRoleError(name, schema, decl)
		}
		return v.withName(name), nil
	case []string:
		return Whitelist(v...).withName(name), nil
	default:
		return Role{}, NewMalformedRoleError(name, schema, decl)
	}
}

// RoleRef references a role either by name or by value. The zero RoleRef is
// the default role.
type RoleRef struct {
	name string
	role *Role
}

// RoleNamed references a role declared on the schema.
func RoleNamed(name string) RoleRef {
	return RoleRef{name: name}
}

// UseRole passes a role directly.
func UseRole(r Role) RoleRef {
	return RoleRef{role: &r}
}

// RoleOf converts a role name, a Role or a list of names into a RoleRef.
func RoleOf(v any) (RoleRef, error) {
	switch r := v.(type) {
	case nil:
		return RoleRef{}, nil
	case RoleRef:
		return r, nil
	case string:
		return RoleNamed(r), nil
	case Role:
		return UseRole(r), nil
	case *Role:
		if r != nil {
			return UseRole(*r), nil
		}
	case []string:
		return UseRole(Whitelist(r...)), nil
	}
	return RoleRef{}, fmt.Errorf("%w: role must be a name or Role, got %T", ErrConfiguration, v)
}

// IsZero reports whether the reference selects the default role.
func (r RoleRef) IsZero() bool {
	return r.name == "" && r.role == nil
}

func (r RoleRef) String() string {
	switch {
	case r.role != nil:
		return fmt.Sprintf("%s%v", r.role.mode, r.role.members)
	case r.name != "":
		return r.name
	default:
		return DefaultRole
	}
}
