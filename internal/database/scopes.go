package database

import (
	"strings"

	"gorm.io/gorm"

	"github.com/yukikurage/project-collab-api/internal/utils"
)

// Paginate applies pagination to a GORM query
func Paginate(params utils.PaginationParams) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(params.Offset).Limit(params.Limit)
	}
}

// likeEscaper escapes LIKE wildcards with '!' so the same pattern works on
// MySQL, PostgreSQL and SQLite.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// ContainsFold filters column by a case-insensitive substring match. An empty
// needle leaves the query untouched.
func ContainsFold(column, needle string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if needle == "" {
			return db
		}
		pattern := "%" + likeEscaper.Replace(strings.ToLower(needle)) + "%"
		return db.Where("LOWER("+column+") LIKE ? ESCAPE '!'", pattern)
	}
}
