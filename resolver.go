package mapx

import (
	"sort"
)

// resolve merges the declarations of chain, ordered from the most base schema
// to the schema being built.
//
// Fields merge by name, later declarations replacing earlier ones while the
// position of a field stays where it was first introduced. Roles are replaced
// whole by name at each level. A __default__ whitelist of every field is
// synthesized when no level declares one.
func resolve(chain []*Schema) (map[string]*Field, []string, map[string]Role, error) {
	fields := make(map[string]*Field)
	introduced := make(map[string]uint64)
	roles := make(map[string]Role)

	for _, level := range chain {
		for _, fd := range level.decl.fields {
			if fd.field.name == "" {
				if err := fd.field.SetName(fd.attr); err != nil {
					return nil, nil, nil, err
				}
			}
			if _, seen := introduced[fd.attr]; !seen {
				introduced[fd.attr] = fd.field.order
			}
			fd.field.freeze()
			fields[fd.attr] = fd.field
		}

		for _, rd := range level.decl.roles {
			role, err := normalizeRole(rd.name, level.decl.name, rd.decl)
			if err != nil {
				return nil, nil, nil, err
			}
			roles[rd.name] = role
		}
	}

	order := make([]string, 0, len(fields))
	for name := range fields {
		order = append(order, name)
	}
	sort.Slice(order, func(i, j int) bool {
		return introduced[order[i]] < introduced[order[j]]
	})

	if _, ok := roles[DefaultRole]; !ok {
		roles[DefaultRole] = Whitelist(order...).withName(DefaultRole)
	}
	return fields, order, roles, nil
}
