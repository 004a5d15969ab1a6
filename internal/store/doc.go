// Package store defines interfaces for course persistence. These interfaces
// abstract the underlying data storage mechanism from the application's core
// logic; implementations live under internal/platform.
package store
