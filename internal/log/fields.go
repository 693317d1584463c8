package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldSuccess    = "success"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldEntity     = "entity"
	FieldEntityID   = "entity_id"
	FieldCacheKey   = "cache_key"
	FieldFileName   = "file_name"
	FieldFileSize   = "file_size"
	FieldCandidates = "candidates"
	FieldUsername   = "username"
	FieldSheetsRef  = "sheets_ref"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentAPI      = "api"
	ComponentEntity   = "entity"
	ComponentImporter = "importer"
	ComponentNotify   = "notify"
	ComponentLedger   = "ledger"
	ComponentWorker   = "worker"
	ComponentSheets   = "sheets"
)

// Operations defines standard operation names
const (
	OpLogin    = "login"
	OpLogout   = "logout"
	OpDelete   = "delete"
	OpList     = "list"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)
