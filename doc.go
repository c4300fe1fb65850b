// Package main provides the entry point for the cooperative management
// backend. It runs a JSON web service using the Fiber framework that keeps
// member, land-plot and crop-cycle records behind a role-based permission
// model. The application uses gorm for data persistence and records all
// administrative activity in an audit log.
package main
