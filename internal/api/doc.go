// Package api exposes the repository's memory, relationship, and
// analysis operations as a read/write JSON API over HTTP, using Gin.
package api
