package repository

import "strings"

// likeEscape is the LIKE escape character. Backslash is avoided because MySQL
// treats it as an escape inside string literals.
const likeEscape = "!"

var likeReplacer = strings.NewReplacer(likeEscape, likeEscape+likeEscape, "%", likeEscape+"%", "_", likeEscape+"_")

// containsPattern builds a case-folded LIKE pattern matching s literally
// anywhere in a lowercased column. Use with likeClause.
func containsPattern(s string) string {
	return "%" + likeReplacer.Replace(strings.ToLower(s)) + "%"
}

// likeClause is "LOWER(col) LIKE ? ESCAPE '!'".
func likeClause(col string) string {
	return "LOWER(" + col + ") LIKE ? ESCAPE '" + likeEscape + "'"
}
