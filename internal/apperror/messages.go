package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	CodeRequiredField:   "Required field is missing",
	CodeInvalidInput:    "Invalid input provided",
	CodeInvalidFormat:   "Invalid data format",
	CodeInvalidState:    "Invalid state for this operation",
	CodeNotFound:        "Resource not found",
	CodeValidationError: "Validation error",

	CodeConfigurationError: "Configuration error",

	CodeExternalServiceError: "External service error",
	CodeServiceTimeout:       "Service request timeout",
	CodeServiceUnavailable:   "Service temporarily unavailable",
	CodeRateLimitExceeded:    "Rate limit exceeded",

	CodeInternalError: "Internal error",
	CodeUnknownError:  "An unknown error occurred",

	CodeChainConnectionFailed: "Failed to connect to chain RPC node",
	CodeChainRPCError:         "Chain RPC call failed",
	CodeContractCallFailed:    "Smart contract call failed",
	CodePairNotFound:          "Liquidity pair not found",
	CodeOnchainPriceFailed:    "Failed to read on-chain price",
	CodeOnchainLiquidity:      "Failed to read on-chain liquidity",
	CodeTokenNotConfigured:    "Token is not configured",

	CodeWebSocketConnectionError: "WebSocket connection error",
	CodeWebSocketReconnecting:    "WebSocket reconnecting",
	CodeWebSocketClosed:          "WebSocket connection closed",
	CodeWebSocketSendError:       "Failed to send WebSocket message",

	CodeVenueConnectionFailed: "Failed to connect to exchange",
	CodeVenueAPIError:         "Exchange API error",
	CodeListingFetchFailed:    "Failed to fetch currency listing",
	CodeOrderbookFetchFailed:  "Failed to fetch order book",
	CodeInvalidOrderbook:      "Invalid order book data",

	CodeTickPanicked:      "Scan tick panicked",
	CodeTokenTaskPanicked: "Token evaluation panicked",

	CodeAlertDeliveryFailed: "Failed to deliver alert",
	CodeDedupBackendError:   "Notification cache backend error",

	CodeCircuitOpen:     "Circuit breaker is open",
	CodeCircuitHalfOpen: "Circuit breaker is half-open",
}
