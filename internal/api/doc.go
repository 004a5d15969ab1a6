// Package api handles incoming HTTP requests, request validation, and
// response formatting. It translates HTTP concerns into calls on the
// course service and maps service errors back to status codes.
package api
