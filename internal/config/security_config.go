package config

type SecurityLevel int

const (
	SecurityPublic SecurityLevel = iota // No authentication
	SecurityAccess                      // Actor token required
)

const rentalService = "/toolshed.v1.RentalService/"

// EndpointSecurityConfig maps gRPC methods to their required security level
var EndpointSecurityConfig = map[string]SecurityLevel{
	"/grpc.health.v1.Health/Check": SecurityPublic,

	rentalService + "CreateRental":  SecurityAccess,
	rentalService + "ApproveRental": SecurityAccess,
	rentalService + "RejectRental":  SecurityAccess,
	rentalService + "ReturnRental":  SecurityAccess,
	rentalService + "DeleteRental":  SecurityAccess,
	rentalService + "GetRental":     SecurityAccess,
}

// GetSecurityLevel returns the security level for a given method
func GetSecurityLevel(method string) SecurityLevel {
	if level, exists := EndpointSecurityConfig[method]; exists {
		return level
	}
	// Default to highest security for unknown endpoints
	return SecurityAccess
}
