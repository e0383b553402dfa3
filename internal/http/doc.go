// Package http provides the HTTP handlers, middleware, and router for the
// team calendar API.
//
// The router exposes the following endpoints:
//   - POST /auth/login: issues a session cookie. Body: {"email","password"}.
//     Password is only checked against accounts that carry a password hash.
//     Responds 200 {"user":{...}} and sets the `calendar_session` cookie.
//   - POST /auth/logout: clears the session cookie. Responds 200
//     {"success":true} whether or not a session was present.
//   - GET /auth/me: resolves the current session. Responds 200
//     {"user":{...}} or {"user":null}; rate limited per client address with
//     the remaining budget surfaced via `X-RateLimit-Remaining`.
//   - GET /calendar/items, POST /calendar/items, PATCH /calendar/items/{id},
//     DELETE /calendar/items/{id}: meeting and deadline management
//     exchanging the `calendarItemDTO` payload defined in dto.go. Listing is
//     available to any authenticated principal while mutations require
//     administrator privileges. PATCH bodies distinguish omitted keys from
//     explicit nulls for the nullable columns.
//   - GET /schedule?date=YYYY-MM-DD, POST /schedule, PATCH /schedule/{id},
//     DELETE /schedule/{id}: per-user daily working windows exchanging the
//     `scheduleEntryDTO` payload. One entry per user per day; conflicting
//     writes respond 409.
//   - GET /users: the member directory for any authenticated principal.
//   - GET /admin/permissions, PUT /admin/permissions: administrator-only
//     two-axis module permission management.
//
// Request and response DTOs live in dto.go or alongside their handlers so
// tests and documentation share the same ground truth.
package http
