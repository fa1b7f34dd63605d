package adminform

import "github.com/samber/lo"

// Tree liked structure, one item per mounted form
type MenuItem struct {
	Category string // parent item Name
	Name     string
	Path     string
	Icon     string

	Children []*MenuItem
}

func (M *MenuItem) dict(active string) map[string]any {
	return map[string]any{
		"category":  M.Category,
		"name":      M.Name,
		"path":      M.Path,
		"icon":      M.Icon,
		"is_active": M.Path == active,
		"children": lo.Map(M.Children, func(m *MenuItem, _ int) map[string]any {
			return m.dict(active)
		}),
	}
}

type Menu []*MenuItem

func (M *Menu) Add(m *MenuItem) {
	if m.Category != "" {
		if c := M.findByCategory(m.Category); c != nil {
			c.Children = append(c.Children, m)
			return
		}
	}
	*M = append(*M, m)
}

func (M Menu) findByCategory(cate string) *MenuItem {
	c, _ := lo.Find(M, func(m *MenuItem) bool {
		return m.Name == cate && m.Category == ""
	})
	return c
}

// `active` is the path of current page
func (M Menu) dict(active string) []map[string]any {
	return lo.Map(M, func(m *MenuItem, _ int) map[string]any {
		return m.dict(active)
	})
}
