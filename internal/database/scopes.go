package database

import (
	"strings"

	"gorm.io/gorm"
)

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// Paginate applies pagination to a GORM query. Page is 1-based; a
// non-positive page or size leaves the query unpaged.
func Paginate(page, pageSize int) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if page <= 0 || pageSize <= 0 {
			return db
		}
		return db.Offset((page - 1) * pageSize).Limit(pageSize)
	}
}

// ContainsFold matches rows where any of columns contains term, ignoring case.
// Wildcards in term match literally.
func ContainsFold(term string, columns ...string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if term == "" || len(columns) == 0 {
			return db
		}
		pattern := "%" + likeEscaper.Replace(term) + "%"
		cond := db.Session(&gorm.Session{NewDB: true})
		for i, col := range columns {
			clause := "LOWER(" + col + ") LIKE LOWER(?) ESCAPE '!'"
			if i == 0 {
				cond = cond.Where(clause, pattern)
			} else {
				cond = cond.Or(clause, pattern)
			}
		}
		return db.Where(cond)
	}
}
