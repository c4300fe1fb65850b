// Package auth provides authentication and authorization for the application.
//
// Authentication is local: username/password against the database with
// Argon2id password hashing (LocalProvider).
//
// Authorization is role-based. Users hold zero or more roles, each carrying a
// permission matrix over the closed module/action sets defined in the rbac
// package. The Service type is the single authorization decision point:
//
//   - Superusers are always allowed, without consulting any matrix.
//   - Otherwise the decision is the logical OR across every role the user
//     holds: one granting role is enough. Permissions are additive; holding
//     an extra role never reduces access.
//   - A user with no roles is denied everything (fail-closed).
//
// A deny is a regular false result, never an error: only infrastructure
// failures (database errors) propagate as errors.
//
// Fiber middleware is provided for route protection:
//
//	app.Delete("/api/roles/:id",
//	    auth.RequirePermission(authService, rbac.ModuleUsers, rbac.ActionDelete),
//	    handlerFunc,
//	)
package auth
