package course

import "github.com/raphco/materia/core/user"

// Visible reports whether a node carrying tag may be shown to v.
// Teachers and anonymous contexts see everything; a student must match both
// axes independently, and an empty restriction set leaves its axis open.
func Visible(tag AudienceTag, v user.Viewer) bool {
	if !v.IsStudent() {
		return true
	}
	return classroomVisible(tag.Classrooms, v.Classroom) && yearVisible(tag.Years, v.Year)
}

func classroomVisible(classrooms []string, room string) bool {
	if len(classrooms) == 0 {
		return true
	}
	for _, c := range classrooms {
		if c == room {
			return true
		}
	}
	return false
}

func yearVisible(years []int, year int) bool {
	if len(years) == 0 {
		return true
	}
	for _, y := range years {
		if y == year {
			return true
		}
	}
	return false
}

// PruneForViewer returns a copy of c with every Module, Category and Material
// hidden from v removed. Pruning is top-down: a hidden Module drops with all
// its descendants, no matter how their own tags read. The input is never
// mutated; callers keep rendering the previous tree while a new one is built.
//
// The Course's own tag is not consulted here. Whether the Course appears in a
// listing at all is decided by Visible on its tag, independently of content.
func PruneForViewer(c Course, v user.Viewer) Course {
	if !v.IsStudent() {
		return c
	}

	content := make([]Module, 0, len(c.Content))
	for _, mod := range c.Content {
		if !Visible(mod.AudienceTag, v) {
			continue
		}
		categories := make([]Category, 0, len(mod.Categories))
		for _, cat := range mod.Categories {
			if !Visible(cat.AudienceTag, v) {
				continue
			}
			materials := make([]Material, 0, len(cat.Materials))
			for _, mat := range cat.Materials {
				if Visible(mat.AudienceTag, v) {
					materials = append(materials, mat)
				}
			}
			cat.Materials = materials
			categories = append(categories, cat)
		}
		mod.Categories = categories
		content = append(content, mod)
	}
	c.Content = content
	return c
}
