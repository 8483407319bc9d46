package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	CodeRequiredField   Code = "REQUIRED_FIELD"
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeInvalidFormat   Code = "INVALID_FORMAT"
	CodeInvalidState    Code = "INVALID_STATE"
	CodeNotFound        Code = "NOT_FOUND"
	CodeValidationError Code = "VALIDATION_ERROR"

	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	CodeExternalServiceError Code = "EXTERNAL_SERVICE_ERROR"
	CodeServiceTimeout       Code = "SERVICE_TIMEOUT"
	CodeServiceUnavailable   Code = "SERVICE_UNAVAILABLE"
	CodeRateLimitExceeded    Code = "RATE_LIMIT_EXCEEDED"

	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Scanner-specific error codes
const (
	// On-chain (BSC / PancakeSwap)
	CodeChainConnectionFailed Code = "CHAIN_CONNECTION_FAILED"
	CodeChainRPCError         Code = "CHAIN_RPC_ERROR"
	CodeContractCallFailed    Code = "CONTRACT_CALL_FAILED"
	CodePairNotFound          Code = "PAIR_NOT_FOUND"
	CodeOnchainPriceFailed    Code = "ONCHAIN_PRICE_FAILED"
	CodeOnchainLiquidity      Code = "ONCHAIN_LIQUIDITY_FAILED"
	CodeTokenNotConfigured    Code = "TOKEN_NOT_CONFIGURED"

	// WebSocket
	CodeWebSocketConnectionError Code = "WEBSOCKET_CONNECTION_ERROR"
	CodeWebSocketReconnecting    Code = "WEBSOCKET_RECONNECTING"
	CodeWebSocketClosed          Code = "WEBSOCKET_CLOSED"
	CodeWebSocketSendError       Code = "WEBSOCKET_SEND_ERROR"

	// Venues
	CodeVenueConnectionFailed Code = "VENUE_CONNECTION_FAILED"
	CodeVenueAPIError         Code = "VENUE_API_ERROR"
	CodeListingFetchFailed    Code = "LISTING_FETCH_FAILED"
	CodeOrderbookFetchFailed  Code = "ORDERBOOK_FETCH_FAILED"
	CodeInvalidOrderbook      Code = "INVALID_ORDERBOOK"

	// Scan cycle
	CodeTickPanicked      Code = "TICK_PANICKED"
	CodeTokenTaskPanicked Code = "TOKEN_TASK_PANICKED"

	// Alerts
	CodeAlertDeliveryFailed Code = "ALERT_DELIVERY_FAILED"
	CodeDedupBackendError   Code = "DEDUP_BACKEND_ERROR"

	// Circuit breaker
	CodeCircuitOpen     Code = "CIRCUIT_OPEN"
	CodeCircuitHalfOpen Code = "CIRCUIT_HALF_OPEN"
)
