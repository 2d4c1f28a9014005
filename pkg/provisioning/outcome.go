package provisioning

// ValidationOutcome is the result of one credential validation attempt.
// Produced exactly once per attempt and consumed by the HTTP handler that
// initiated it.
type ValidationOutcome uint8

const (
	// OutcomeOk means the join succeeded with the candidate credentials.
	OutcomeOk ValidationOutcome = iota

	// OutcomeAuthFailed means the access point rejected the password.
	OutcomeAuthFailed

	// OutcomeNetworkNotFound means no access point with the SSID was seen.
	OutcomeNetworkNotFound

	// OutcomeTimeout means no terminal signal arrived within the window,
	// or the delegate exhausted its retries.
	OutcomeTimeout

	// OutcomeGeneralError covers driver and infrastructure failures.
	OutcomeGeneralError
)

// String returns the outcome name.
func (o ValidationOutcome) String() string {
	switch o {
	case OutcomeOk:
		return "OK"
	case OutcomeAuthFailed:
		return "AUTH_FAILED"
	case OutcomeNetworkNotFound:
		return "NETWORK_NOT_FOUND"
	case OutcomeTimeout:
		return "TIMEOUT"
	case OutcomeGeneralError:
		return "GENERAL_ERROR"
	default:
		return "UNKNOWN"
	}
}

// Message returns the user-visible portal message for the outcome.
func (o ValidationOutcome) Message() string {
	switch o {
	case OutcomeOk:
		return "Conexión exitosa"
	case OutcomeAuthFailed:
		return "Contraseña incorrecta"
	case OutcomeNetworkNotFound:
		return "Red no encontrada"
	case OutcomeTimeout:
		return "Tiempo de espera agotado, intente de nuevo"
	case OutcomeGeneralError:
		return "Error de conexión, intente de nuevo"
	default:
		return "Error desconocido"
	}
}

// lowMemoryMessage is returned with a 503 when admission control refuses
// a request.
const lowMemoryMessage = "Memoria insuficiente para completar la operación"
