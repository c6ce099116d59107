package log

// Common field names for structured logging
const (
	FieldComponent = "component"
	FieldUserID    = "user_id"
	FieldFlow      = "flow"
	FieldStep      = "step"
	FieldGroup     = "group"
	FieldCategory  = "category"
	FieldAmount    = "amount"
	FieldCurrency  = "currency"
	FieldCommand   = "command"
	FieldBackend   = "backend"
	FieldError     = "error"
	FieldOperation = "operation"
	FieldDuration  = "duration_ms"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentEngine    = "engine"
	ComponentSession   = "session"
	ComponentLedger    = "ledger"
	ComponentCurrency  = "currency"
	ComponentReport    = "report"
	ComponentTransport = "transport"
	ComponentChat      = "chat"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentSheets    = "sheets"
	ComponentBackend   = "backend"
)

// Operations defines standard operation names
const (
	OpAppend   = "append"
	OpCreate   = "create"
	OpDelete   = "delete"
	OpQuery    = "query"
	OpValidate = "validate"
	OpRender   = "render"
	OpPublish  = "publish"
	OpConsume  = "consume"
	OpSweep    = "sweep"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)
