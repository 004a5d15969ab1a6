// Package domain contains the core business entities and value objects of the
// application: generation requests, learning cards, and saved courses. It is
// independent of any specific infrastructure or delivery mechanism.
package domain
