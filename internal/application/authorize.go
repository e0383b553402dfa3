package application

// requireIdentity rejects requests that reached a service without an
// authenticated principal. The session middleware normally guarantees this;
// the check keeps services safe when invoked directly.
func requireIdentity(principal Principal) error {
	if principal.UserID == "" {
		return ErrUnauthorized
	}
	return nil
}

// requireAdmin gates mutating operations on the administrator role.
func requireAdmin(principal Principal) error {
	if err := requireIdentity(principal); err != nil {
		return err
	}
	if !principal.IsAdmin {
		return ErrForbidden
	}
	return nil
}
