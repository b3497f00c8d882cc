package models

// Common constants used across the application
const (
	// UnknownValue is the fallback value when data is unavailable or calculation fails
	UnknownValue = "UNKNOWN"

	// UnnamedStop is shown for stops whose source carries no name.
	UnnamedStop = "Unnamed Stop"

	// AddressNotAvailable is shown for stops whose source carries no address.
	AddressNotAvailable = "Address not available"
)
