// internal/status/constants.go
package status

// ---- HEALTH CODES ----

// HealthUnknown represents the state before the first poll completes.
const HealthUnknown uint16 = 0

// HealthOK represents a sensor answering with valid samples.
const HealthOK uint16 = 1

// HealthError represents a sensor whose last poll failed.
const HealthError uint16 = 2

// HealthStale represents a sensor with no successful poll within the stale window.
const HealthStale uint16 = 3

// HealthDisabled represents a stopped session.
const HealthDisabled uint16 = 4

// ---- ERROR CODES ----
// Device exception codes (1..255) are passed through unchanged.
// Local failures use the ranges below.

// CodeGeneric is used when nothing more specific is known.
const CodeGeneric uint16 = 1

// CodeTiming covers response timeouts.
const CodeTiming uint16 = 0x0100

// CodeProtocol covers CRC, length, address and function mismatches.
const CodeProtocol uint16 = 0x0200

// CodeTransport covers serial write, read and open failures.
const CodeTransport uint16 = 0x0300

// CodeDecode covers register payloads that cannot be decoded.
const CodeDecode uint16 = 0x0400

// CodeConfig covers invalid requests and failed baud detection.
const CodeConfig uint16 = 0x0500

// ---- LIMITS ----

// MaxSecondsInError is where SecondsInError saturates.
const MaxSecondsInError uint16 = 65535
