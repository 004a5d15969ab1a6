// Package postgres implements store.CourseStore on PostgreSQL through the
// pgx database/sql driver. It also embeds the schema migrations and applies
// them with goose.
package postgres
