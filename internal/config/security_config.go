// config/security_config.go
package config

import "chacara-backend/internal/domain"

type SecurityLevel int

const (
	SecurityPublic SecurityLevel = iota // No authentication
	SecurityAccess                      // Access token required
)

// EndpointRule is the security level and the roles allowed on one route.
// An empty Roles list admits every authenticated role.
type EndpointRule struct {
	Level SecurityLevel
	Roles []domain.UserType
}

var (
	adminOnly    = []domain.UserType{domain.UserTypeAdmin}
	adminOrOwner = []domain.UserType{domain.UserTypeAdmin, domain.UserTypeOwner}
)

// EndpointSecurityConfig maps "METHOD /path/template" (HTTP) or the full
// method name (gRPC) to its rule
var EndpointSecurityConfig = map[string]EndpointRule{
	// Auth
	"POST /api/v1/auth/login":  {Level: SecurityPublic},
	"POST /api/v1/auth/logout": {Level: SecurityAccess},
	"GET /api/v1/auth/me":      {Level: SecurityAccess},

	// Health
	"GET /healthz": {Level: SecurityPublic},

	// gRPC health and reflection
	"/grpc.health.v1.Health/Check": {Level: SecurityPublic},
	"/grpc.health.v1.Health/Watch": {Level: SecurityPublic},
	"/grpc.health.v1.Health/List":  {Level: SecurityPublic},

	"/grpc.reflection.v1.ServerReflection/ServerReflectionInfo":      {Level: SecurityPublic},
	"/grpc.reflection.v1alpha.ServerReflection/ServerReflectionInfo": {Level: SecurityPublic},

	// Properties
	"GET /api/v1/properties":             {Level: SecurityPublic},
	"GET /api/v1/properties/{id}":        {Level: SecurityPublic},
	"POST /api/v1/properties":            {Level: SecurityAccess, Roles: adminOrOwner},
	"PATCH /api/v1/properties/{id}":      {Level: SecurityAccess, Roles: adminOrOwner},
	"PUT /api/v1/properties/{id}/status": {Level: SecurityAccess, Roles: adminOnly},
	"GET /api/v1/properties/{id}/quote":  {Level: SecurityPublic},

	// Reservations
	"GET /api/v1/reservations":             {Level: SecurityAccess},
	"POST /api/v1/reservations":            {Level: SecurityAccess},
	"GET /api/v1/reservations/current":     {Level: SecurityAccess},
	"PUT /api/v1/reservations/current":     {Level: SecurityAccess},
	"GET /api/v1/reservations/{id}":        {Level: SecurityAccess},
	"PUT /api/v1/reservations/{id}/status": {Level: SecurityAccess, Roles: adminOrOwner},

	// Payments
	"GET /api/v1/payments":               {Level: SecurityAccess, Roles: adminOrOwner},
	"POST /api/v1/payments/{id}/confirm": {Level: SecurityAccess, Roles: adminOrOwner},

	// Jobs
	"POST /api/v1/jobs/mark-overdue": {Level: SecurityAccess, Roles: adminOnly},

	// Reports
	"GET /api/v1/reports/dashboard":    {Level: SecurityAccess, Roles: adminOnly},
	"GET /api/v1/reports/owner":        {Level: SecurityAccess, Roles: adminOrOwner},
	"GET /api/v1/reports/monthly":      {Level: SecurityAccess, Roles: adminOnly},
	"GET /api/v1/reports/payments":     {Level: SecurityAccess, Roles: adminOnly},
	"GET /api/v1/reports/reservations": {Level: SecurityAccess, Roles: adminOnly},
}

// GetEndpointRule returns the rule for a route key
func GetEndpointRule(route string) EndpointRule {
	if rule, exists := EndpointSecurityConfig[route]; exists {
		return rule
	}
	// Default to highest security for unknown endpoints
	return EndpointRule{Level: SecurityAccess, Roles: adminOnly}
}

// Allows reports whether the role may call the route.
func (r EndpointRule) Allows(role domain.UserType) bool {
	if len(r.Roles) == 0 {
		return true
	}
	for _, allowed := range r.Roles {
		if allowed == role {
			return true
		}
	}
	return false
}
