package geo

import "fmt"

// ErrorKind enumerates why a position could not be obtained.
type ErrorKind string

const (
	PermissionDenied    ErrorKind = "permission_denied"
	PositionUnavailable ErrorKind = "position_unavailable"
	Timeout             ErrorKind = "timeout"
	Unknown             ErrorKind = "unknown"
)

// GeolocationError is a recoverable locate failure; the user has to retry.
type GeolocationError struct {
	Kind ErrorKind
}

func (e *GeolocationError) Error() string {
	return fmt.Sprintf("geolocation %s: %s", e.Kind, e.Message())
}

// Message is the user-facing explanation for the kind.
func (e *GeolocationError) Message() string {
	switch e.Kind {
	case PermissionDenied:
		return "Location access was denied. Allow location access to find nearby service centers."
	case PositionUnavailable:
		return "Your location could not be determined. Check that location services are enabled."
	case Timeout:
		return "Locating you took too long. Please try again."
	default:
		return "An unknown error occurred while getting your location."
	}
}

// KindFromCode maps a W3C GeolocationPositionError code.
func KindFromCode(code int) ErrorKind {
	switch code {
	case 1:
		return PermissionDenied
	case 2:
		return PositionUnavailable
	case 3:
		return Timeout
	default:
		return Unknown
	}
}
