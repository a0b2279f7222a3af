package logging

// Standardized field names for structured logging.
const (
	FieldFile        = "file_path"
	FieldFormat      = "format"
	FieldCategory    = "category"
	FieldCategoryID  = "category_id"
	FieldPattern     = "pattern"
	FieldDescription = "description"
	FieldStrategy    = "strategy"
	FieldReason      = "reason"
	FieldLine        = "line"
	FieldIndex       = "index"
	FieldStatus      = "status"
	FieldError       = "error"
	FieldDuration    = "duration_ms"
	FieldCount       = "count"
	FieldImportID    = "import_id"
	FieldAddr        = "addr"
)
