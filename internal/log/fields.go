package log

// Common field names for structured logging.
const (
	FieldComponent    = "component"
	FieldRequestID    = "request_id"
	FieldClientIP     = "client_ip"
	FieldMethod       = "method"
	FieldPath         = "path"
	FieldStatusCode   = "status_code"
	FieldDuration     = "duration_ms"
	FieldError        = "error"
	FieldOperation    = "operation"
	FieldFamilyID     = "family_id"
	FieldEntryID      = "entry_id"
	FieldCategoryID   = "category_id"
	FieldActor        = "created_by"
	FieldEntryDate    = "entry_date"
	FieldAmountMinor  = "amount_minor"
	FieldBaseMinor    = "amount_base_minor"
	FieldCurrencyFrom = "currency_from"
	FieldCurrencyTo   = "currency_to"
	FieldFxRate       = "fx_rate"
	FieldFxDate       = "fx_date"
	FieldQueueDepth   = "queue_depth"
	FieldSyncedCount  = "synced_count"
	FieldRemoteRef    = "remote_ref"
)

// Components defines standard component names.
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentLedger  = "ledger"
	ComponentFX      = "fx"
	ComponentStore   = "store"
	ComponentQueue   = "queue"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentExport  = "export"
	ComponentBackend = "backend"
)

// Operations defines standard operation names.
const (
	OpCreate  = "create"
	OpUpdate  = "update"
	OpDelete  = "delete"
	OpList    = "list"
	OpResolve = "resolve"
	OpEnqueue = "enqueue"
	OpReplay  = "replay"
	OpExport  = "export"
)
