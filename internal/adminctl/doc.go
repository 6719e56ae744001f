// Package adminctl implements the operator commands of accountctl. The only
// command today is create-admin, which bootstraps an ADMIN account through
// the same AccountService the HTTP API uses.
package adminctl
