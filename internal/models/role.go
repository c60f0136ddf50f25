package models

// Role is the access level carried in an issued credential.
type Role string

// RoleAdmin is the only role the service issues: the shared admin
// secret grants full administrative access.
const RoleAdmin Role = "admin"
