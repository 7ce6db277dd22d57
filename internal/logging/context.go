package logging

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldEventType is the standardized key describing what happened.
	FieldEventType = "event_type"
	// FieldErrorHint is the standardized key suggesting a next step for operators.
	FieldErrorHint = "error_hint"
	// FieldArchive is the standardized key for the archive file being processed.
	FieldArchive = "archive"
	// FieldSequence is the standardized key for an archive's arrival index within a session.
	FieldSequence = "seq"
	// FieldTool is the standardized key for an external tool name.
	FieldTool = "tool"
	// FieldAlert flags warnings or anomalies that should stand out in structured logs.
	FieldAlert = "alert"
)
