// config/security_config.go
package config

type SecurityLevel int

const (
	SecurityPublic SecurityLevel = iota // No authentication
	SecurityAccess                      // Access token required
	SecurityAdmin                       // Access token with the admin role
)

// EndpointSecurityConfig maps "METHOD /route/template" (and gRPC full method names) to their required security level
var EndpointSecurityConfig = map[string]SecurityLevel{
	// Probes - Public
	"GET /healthz":                 SecurityPublic,
	"GET /metrics":                 SecurityPublic,
	"/grpc.health.v1.Health/Check": SecurityPublic,
	"/grpc.health.v1.Health/Watch": SecurityPublic,

	// Bookings - Access Protected
	"POST /api/v1/bookings":               SecurityAccess,
	"GET /api/v1/bookings":                SecurityAccess,
	"GET /api/v1/bookings/{id}":           SecurityAccess,
	"PUT /api/v1/bookings/{id}":           SecurityAccess,
	"POST /api/v1/bookings/{id}/status":   SecurityAccess,
	"DELETE /api/v1/bookings/{id}":        SecurityAccess,
	"GET /api/v1/bookings/{id}/movements": SecurityAccess,
	"GET /api/v1/bookings/{id}/activity":  SecurityAccess,

	// Bookings - Admin Protected
	"DELETE /api/v1/bookings/{id}/permanent": SecurityAdmin,

	// Equipment - Access Protected
	"GET /api/v1/equipment":                   SecurityAccess,
	"GET /api/v1/equipment/{id}":              SecurityAccess,
	"GET /api/v1/equipment/{id}/availability": SecurityAccess,
	"GET /api/v1/equipment/{id}/quote":        SecurityAccess,
	"GET /api/v1/equipment/{id}/movements":    SecurityAccess,
	"GET /api/v1/equipment/{id}/units":        SecurityAccess,

	// Equipment - Admin Protected
	"POST /api/v1/equipment":                           SecurityAdmin,
	"PUT /api/v1/equipment/{id}/pricing":               SecurityAdmin,
	"PUT /api/v1/equipment/{id}/stock":                 SecurityAdmin,
	"POST /api/v1/equipment/{id}/condition":            SecurityAdmin,
	"DELETE /api/v1/equipment/{id}":                    SecurityAdmin,
	"POST /api/v1/equipment/{id}/units":                SecurityAdmin,
	"PUT /api/v1/equipment/{id}/units/{unitId}/status": SecurityAdmin,
}

// GetSecurityLevel returns the security level for a given route or method
func GetSecurityLevel(method string) SecurityLevel {
	if level, exists := EndpointSecurityConfig[method]; exists {
		return level
	}
	// Default to highest security for unknown endpoints
	return SecurityAdmin
}
