package access

import "github.com/trezcool/veritas/core/session"

type MenuItem struct {
	Label string `json:"label"`
	Path  string `json:"path"`
}

// Menus is the role → screens table shown on the dashboard.
var Menus = map[session.Role][]MenuItem{
	session.RoleAdmin: {
		{Label: "Usuarios", Path: "/admin/usuarios"},
		{Label: "Aspirantes", Path: "/admin/aspirantes"},
		{Label: "Grupos", Path: "/admin/grupos"},
		{Label: "Estudiantes", Path: "/admin/estudiantes"},
		{Label: "Citaciones", Path: "/admin/citaciones"},
	},
	session.RoleProfesor: {
		{Label: "Mis grupos", Path: "/profesor/grupos"},
		{Label: "Citaciones", Path: "/profesor/citaciones"},
		{Label: "Calificaciones", Path: "/profesor/calificaciones"},
		{Label: "Observador", Path: "/profesor/observador"},
	},
	session.RoleAcudiente: {
		{Label: "Citaciones", Path: "/acudiente/citaciones"},
		{Label: "Calificaciones", Path: "/acudiente/calificaciones"},
		{Label: "Boletines", Path: "/acudiente/boletines"},
		{Label: "Observador", Path: "/acudiente/observador"},
	},
	session.RoleAspirante: {
		{Label: "Mi preinscripción", Path: AspirantePath},
		{Label: "Estado", Path: AspirantePath + "/estado"},
		{Label: "Formulario", Path: AspirantePath + "/formulario"},
	},
}

// MenuFor returns the screens of role; unknown roles get none.
func MenuFor(role session.Role) []MenuItem {
	items := Menus[role]
	out := make([]MenuItem, len(items))
	copy(out, items)
	return out
}
